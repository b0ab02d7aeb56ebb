package container

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-rewards-distributor/testutil"
)

const (
	MongoUser        = "user"
	MongoPassword    = "password"
	RabbitMQUser     = "user"
	RabbitMQPassword = "password"
)

// Manager is a wrapper around all Docker instances, and the Docker API.
// It provides utilities to run and interact with all Docker containers used
// within e2e testing.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources map[string]*dockertest.Resource
}

// NewManager creates a new Manager instance and initializes
// all Docker specific utilities. Returns an error if initialization fails.
func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:       NewImageConfig(),
		pool:      pool,
		resources: make(map[string]*dockertest.Resource),
	}, nil
}

func (m *Manager) run(name string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	suffix, err := testutil.RandomAlphaNum(4)
	if err != nil {
		return nil, err
	}
	opts.Name = fmt.Sprintf("%s-%s", name, suffix)

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, err
	}
	m.resources[name] = resource
	return resource, nil
}

// RunMongoResource starts MongoDB and returns its connection address once
// it answers pings.
func (m *Manager) RunMongoResource() (string, error) {
	resource, err := m.run("mongo-e2e", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + MongoUser,
			"MONGO_INITDB_ROOT_PASSWORD=" + MongoPassword,
		},
	})
	if err != nil {
		return "", err
	}

	address := fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp"))
	err = m.pool.Retry(func() error {
		ctx := context.Background()
		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(address).
			SetAuth(options.Credential{Username: MongoUser, Password: MongoPassword}))
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx) //nolint:errcheck
		return client.Ping(ctx, nil)
	})
	return address, err
}

// RunRabbitMQResource starts RabbitMQ and returns its host:port once it
// accepts connections.
func (m *Manager) RunRabbitMQResource() (string, error) {
	resource, err := m.run("rabbitmq-e2e", &dockertest.RunOptions{
		Repository: m.cfg.RabbitMQRepository,
		Tag:        m.cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + RabbitMQUser,
			"RABBITMQ_DEFAULT_PASS=" + RabbitMQPassword,
		},
	})
	if err != nil {
		return "", err
	}

	hostPort := fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp"))
	err = m.pool.Retry(func() error {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", RabbitMQUser, RabbitMQPassword, hostPort))
		if err != nil {
			return err
		}
		return conn.Close()
	})
	return hostPort, err
}

// ClearResources removes all outstanding Docker resources created by the Manager.
func (m *Manager) ClearResources() error {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return err
		}
	}
	return nil
}
