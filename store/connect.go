package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/jacentio/generaldb/process"
)

// ConnectOptions describes how to reach DynamoDB and which environment to use.
type ConnectOptions struct {
	// Region is the AWS region. Required.
	Region string

	// Profile is a named profile from the shared AWS config files.
	// Empty uses the default credential chain.
	Profile string

	// Environment is prefixed to the physical table names.
	Environment string

	// Endpoint overrides the service endpoint, e.g. "http://localhost:8000"
	// for DynamoDB Local. Requests to a custom endpoint are unsigned.
	Endpoint string

	// Logger and Debug are passed to the Store unchanged.
	Logger *zerolog.Logger
	Debug  bool
}

// Connect loads AWS configuration and returns a Store backed by a new
// DynamoDB client.
func Connect(ctx context.Context, opts ConnectOptions) (*Store, error) {
	if opts.Region == "" {
		return nil, ErrNoRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config (profile %q): %w", opts.Profile, err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return New(client, Config{
		Environment: opts.Environment,
		Logger:      opts.Logger,
		Debug:       opts.Debug,
	}), nil
}

// Open connects with the default credential chain, taking region, debug
// flag and environment from proc. A nil proc reads GENERALDB_ENV.
func Open(ctx context.Context, proc *process.Config) (*Store, error) {
	proc = orDefault(proc)
	return Connect(ctx, ConnectOptions{
		Region:      proc.Region(),
		Environment: proc.Environment(),
		Debug:       proc.Debug(),
	})
}

// OpenWithEnvironment is Open with an explicit environment.
func OpenWithEnvironment(ctx context.Context, proc *process.Config, env string) (*Store, error) {
	proc = orDefault(proc)
	return Connect(ctx, ConnectOptions{
		Region:      proc.Region(),
		Environment: env,
		Debug:       proc.Debug(),
	})
}

// OpenInRegion is Open against an explicit region.
func OpenInRegion(ctx context.Context, proc *process.Config, region string) (*Store, error) {
	proc = orDefault(proc)
	return Connect(ctx, ConnectOptions{
		Region:      region,
		Environment: proc.Environment(),
		Debug:       proc.Debug(),
	})
}

// OpenWithProfile connects to region using a named shared-config profile.
// The environment comes from proc.
func OpenWithProfile(ctx context.Context, proc *process.Config, region, profile string) (*Store, error) {
	proc = orDefault(proc)
	return Connect(ctx, ConnectOptions{
		Region:      region,
		Profile:     profile,
		Environment: proc.Environment(),
		Debug:       proc.Debug(),
	})
}

// OpenWithProfileAndEnvironment connects with every setting given explicitly.
func OpenWithProfileAndEnvironment(ctx context.Context, region, profile, env string) (*Store, error) {
	return Connect(ctx, ConnectOptions{
		Region:      region,
		Profile:     profile,
		Environment: env,
	})
}

func orDefault(proc *process.Config) *process.Config {
	if proc == nil {
		return process.New()
	}
	return proc
}
