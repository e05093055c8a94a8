package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindmap3d/config"
	"mindmap3d/di"
	"mindmap3d/httpapi"
)

var (
	chiLambda     *chiadapter.ChiLambdaV2
	container     *di.Container
	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	container, err = di.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build dependency container: %v", err)
	}

	handler := httpapi.NewRouter(container.Coordinator, container.Metrics, container.Logger, cfg.CORSOrigins)

	router, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("expected httpapi.NewRouter to return a *chi.Mux")
	}
	chiLambda = chiadapter.NewV2(router)

	log.Printf("lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda entrypoint, proxying API Gateway v2 HTTP events to
// the chi router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}

	if err != nil {
		container.Logger.Error("lambda proxy error", zap.Error(err))
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
