// Command enqueue sends a local CSV file to the sync queue as one batch.
//
//	enqueue -file contactData.csv -mode UPSERT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/config"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/queue"
)

func main() {
	log := logrus.New()

	file := flag.String("file", "", "path to the CSV file to enqueue")
	modeFlag := flag.String("mode", string(model.ModeUpsert), "operation mode: CREATE, UPDATE or UPSERT")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}
	mode, err := model.ParseMode(*modeFlag)
	if err != nil {
		log.WithError(err).Fatal("Invalid -mode")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		log.WithError(err).Fatal("Failed to read CSV file")
	}

	ctx := context.Background()
	q, err := queue.Connect(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to SQS")
	}

	body, err := json.Marshal(model.Envelope{OperationType: string(mode), CSV: string(content)})
	if err != nil {
		log.WithError(err).Fatal("Failed to build envelope")
	}

	messageID, err := q.Send(ctx, string(body))
	if err != nil {
		log.WithError(err).Fatal("Failed to send message")
	}
	log.WithField("message_id", messageID).Info("📨 CSV enqueued")
}
