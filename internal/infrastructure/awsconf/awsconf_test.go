package awsconf

import (
	"context"
	"testing"

	"github.com/localtourx-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_StaticCredentials(t *testing.T) {
	cfg := &config.Config{AWSRegion: "us-east-1", AWSAccessKeyID: "AKID", AWSSecretKey: "secret"}
	awsCfg, err := Load(context.Background(), cfg, "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestLoad_DefaultsToConfigRegion(t *testing.T) {
	awsCfg, err := Load(context.Background(), &config.Config{AWSRegion: "us-west-2", AWSAccessKeyID: "AKID", AWSSecretKey: "s"}, "")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)
}

func TestEndpoint(t *testing.T) {
	assert.Nil(t, Endpoint(&config.Config{}))
	ep := Endpoint(&config.Config{AWSEndpointURL: "http://localhost:4566"})
	require.NotNil(t, ep)
	assert.Equal(t, "http://localhost:4566", *ep)
}
