// Command generaldb-replicator is an AWS Lambda function that mirrors the
// DynamoDB streams of the general tables into another region or environment.
//
// Configuration comes from the environment:
//
//	GENERALDB_TARGET_REGION   region of the target tables (required)
//	GENERALDB_TARGET_ENV      environment prefix of the target tables
//	GENERALDB_DEBUG           log every replicated record
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/jacentio/generaldb/process"
	"github.com/jacentio/generaldb/store"
	"github.com/jacentio/generaldb/stream"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix(process.EnvPrefix)
	v.AutomaticEnv()

	level := zerolog.InfoLevel
	if v.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	target, err := store.Connect(context.Background(), store.ConnectOptions{
		Region:      v.GetString("target_region"),
		Environment: v.GetString("target_env"),
		Logger:      &logger,
		Debug:       v.GetBool("debug"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open target store")
	}

	lambda.Start(stream.NewHandler(target, &logger).HandleReplication)
}
