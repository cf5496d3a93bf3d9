package csvcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	blob := "name,company_website,email\nAcme,acme.com,a@acme.com\nGlobex,globex.com,b@globex.com\n"

	batch, err := Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "company_website", "email"}, batch.Header)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "acme.com", batch.Rows[0]["company_website"])
	assert.Equal(t, "b@globex.com", batch.Rows[1]["email"])
}

func TestDecodeCleansHeaders(t *testing.T) {
	batch, err := Decode(" name , \"company_website\" \nAcme,acme.com\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "company_website"}, batch.Header)
	assert.Equal(t, "Acme", batch.Rows[0]["name"])
}

func TestDecodeRejectsRaggedRows(t *testing.T) {
	_, err := Decode("a,b,c\n1,2\n")
	assert.Error(t, err)
}

func TestDecodeEmptyBlob(t *testing.T) {
	_, err := Decode("")
	assert.Error(t, err)
}

func TestDecodeIsRestartable(t *testing.T) {
	blob := "a,b\n1,2\n3,4\n"

	first, err := Decode(blob)
	require.NoError(t, err)
	second, err := Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRoundTrip(t *testing.T) {
	blob := "name,city\nAda,London\nGrace,\"New York\"\n"

	batch, err := Decode(blob)
	require.NoError(t, err)

	encoded, err := Encode(batch)
	require.NoError(t, err)

	again, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, batch.Header, again.Header)
	assert.Equal(t, batch.Rows, again.Rows)
}
