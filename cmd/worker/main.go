// Command worker is the SQS-triggered Lambda that consumes order.placed
// events and publishes order metrics to CloudWatch.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nexssio/storefront/internal/aws"
	"github.com/nexssio/storefront/internal/config"
	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/logging"
	"github.com/nexssio/storefront/internal/store/dynamo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json", nil)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, nil)

	if cfg.StoreBackend != config.BackendDynamo {
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("worker requires STORE_BACKEND=dynamo")
	}

	clients, err := aws.NewAWSClients(context.Background(), aws.Options{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.AWSEndpointOverride,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init aws clients")
	}

	store := dynamo.NewStore(clients.DynamoDB, dynamo.Tables{
		Cart:        cfg.CartTable,
		Orders:      cfg.OrdersTable,
		Submissions: cfg.SubmissionsTable,
		Counters:    cfg.CountersTable,
	})
	processor := NewProcessor(
		store,
		aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		idempotency.NewDynamoStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		log,
	)

	// If RUN_LOCAL=true, process a single simulated message and exit.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":1,"session_id":"local"}`
		}
		resp, err := processor.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("local handler error")
		}
		out, _ := json.Marshal(resp)
		log.Info().RawJSON("response", out).Msg("local run complete")
		return
	}

	lambda.Start(processor.Handle)
}
