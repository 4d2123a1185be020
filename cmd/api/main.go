// Command api serves the storefront REST API, either as a local HTTP server
// or behind API Gateway as a Lambda.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/aws"
	"github.com/nexssio/storefront/internal/cache"
	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
	"github.com/nexssio/storefront/internal/config"
	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/handlers"
	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/logging"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/pricing"
	"github.com/nexssio/storefront/internal/store/dynamo"
	"github.com/nexssio/storefront/internal/store/memory"
)

// backend is the persistence surface shared by the memory and dynamo stores.
type backend interface {
	cart.Repository
	orders.Repository
	contact.Repository
}

type deps struct {
	store     backend
	idemp     idempotency.Store
	publisher orders.EventPublisher
}

func buildDeps(ctx context.Context, cfg *config.Config, log zerolog.Logger) (deps, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return deps{
			store: memory.New(),
			idemp: idempotency.NewMemoryStore(cfg.IdempotencyTTL),
		}, nil
	}

	clients, err := aws.NewAWSClients(ctx, aws.Options{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.AWSEndpointOverride,
	})
	if err != nil {
		return deps{}, err
	}

	d := deps{
		store: dynamo.NewStore(clients.DynamoDB, dynamo.Tables{
			Cart:        cfg.CartTable,
			Orders:      cfg.OrdersTable,
			Submissions: cfg.SubmissionsTable,
			Counters:    cfg.CountersTable,
		}),
		idemp: idempotency.NewDynamoStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
	}
	if cfg.OrdersQueueURL != "" {
		d.publisher = aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	}
	return d, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json", nil)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, nil)
	ctx := context.Background()

	products, err := catalog.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init aws clients")
	}

	var cartCache cart.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cart cache will degrade")
		}
		cartCache = cache.NewRedisCache(client, cfg.CartCacheTTL)
	}

	ledger := cart.NewService(d.store, products, cartCache, log)
	converter := orders.NewConverter(orders.Config{
		Items:     d.store,
		Products:  products,
		Repo:      d.store,
		Pricing:   pricing.NewCalculator(cfg.Tax()),
		Publisher: d.publisher,
		Cache:     ledger,
		Logger:    log,
	})

	r := handlers.NewRouter(handlers.Deps{
		Catalog:     products,
		Cart:        ledger,
		Orders:      converter,
		Contact:     contact.NewService(d.store, log),
		Idempotency: d.idemp,
		Logger:      log,
	})

	if cfg.RunLocal {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("running local server")
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("failed to run local server")
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
