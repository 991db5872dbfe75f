package plc

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type opcuaVariable interface {
	asReadValue() (*ua.ReadValueID, error)
	asWriteValue() (*ua.WriteValue, error)
}

// session is the part of the OPC UA client the remote sink talks to.
type session interface {
	Read(ctx context.Context, vars []opcuaVariable) (*ua.ReadResponse, error)
	Write(ctx context.Context, vars []opcuaVariable) (*ua.WriteResponse, error)
}

type Client struct {
	opcua    *opcua.Client
	endpoint string
	log      logrus.FieldLogger
}

func NewClient(opcuaEndpoint string, log logrus.FieldLogger) (*Client, error) {
	if opcuaEndpoint == "" {
		opcuaEndpoint = OPCUA_ENDPOINT
	}
	opcuaClient, err := opcua.NewClient(opcuaEndpoint, opcua.SecurityMode(ua.MessageSecurityModeNone))
	if err != nil {
		return nil, errors.Wrapf(err, "creating client for %s", opcuaEndpoint)
	}

	return &Client{
		opcua:    opcuaClient,
		endpoint: opcuaEndpoint,
		log:      log.WithField("component", "plc"),
	}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	return c.opcua.Connect(ctx)
}

// ConnectWithRetry keeps dialing the server with exponential backoff until it
// answers, maxRetries is exhausted or ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context, maxRetries int, maxElapsed time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	err := backoff.Retry(func() error {
		if err := c.opcua.Connect(ctx); err != nil {
			c.log.WithError(err).Warnf("Failed to connect to %s", c.endpoint)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return errors.Wrapf(err, "could not connect to %s after retries", c.endpoint)
	}

	c.log.Infof("Connected to OPC UA server at %s", c.endpoint)
	return nil
}

func (c *Client) Read(ctx context.Context, vars []opcuaVariable) (*ua.ReadResponse, error) {
	rvs := make([]*ua.ReadValueID, len(vars))

	for i, v := range vars {
		rv, err := v.asReadValue()
		if err != nil {
			return nil, errors.Wrap(err, "[plc.Read]")
		}
		rvs[i] = rv
	}

	request := ua.ReadRequest{
		NodesToRead:        rvs,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}

	response, err := c.opcua.Read(ctx, &request)
	if err != nil {
		return nil, errors.Wrap(err, "error reading from server")
	}

	return response, nil
}

func (c *Client) Write(ctx context.Context, vars []opcuaVariable) (*ua.WriteResponse, error) {
	wvs := make([]*ua.WriteValue, len(vars))

	for i, v := range vars {
		wv, err := v.asWriteValue()
		if err != nil {
			return nil, errors.Wrap(err, "[plc.Write]")
		}
		wvs[i] = wv
	}

	request := ua.WriteRequest{NodesToWrite: wvs}
	response, err := c.opcua.Write(ctx, &request)
	if err != nil {
		return nil, errors.Wrap(err, "error writing to server")
	}

	return response, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.opcua.Close(ctx)
}
