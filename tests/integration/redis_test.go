package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/base62"

	goredis "github.com/redis/go-redis/v9"
	redisrepo "github.com/vadimbarashkov/scheduled-shortener/internal/adapter/repository/redis"
)

type SequenceTestSuite struct {
	suite.Suite
	redisCont testcontainers.Container
	client    *goredis.Client
}

func (suite *SequenceTestSuite) SetupSuite() {
	ctx := context.Background()

	var err error
	suite.redisCont, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		suite.T().Fatalf("Failed to start redis container: %v", err)
	}
	suite.T().Cleanup(func() {
		if err := suite.redisCont.Terminate(ctx); err != nil {
			suite.T().Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	addr, err := suite.redisCont.Endpoint(ctx, "")
	if err != nil {
		suite.T().Fatalf("Failed to get redis container endpoint: %v", err)
	}

	suite.client = goredis.NewClient(&goredis.Options{Addr: addr})
	suite.T().Cleanup(func() {
		suite.client.Close()
	})

	if err := suite.client.Ping(ctx).Err(); err != nil {
		suite.T().Fatalf("Failed to ping redis: %v", err)
	}
}

func (suite *SequenceTestSuite) TearDownSubTest() {
	if err := suite.client.FlushDB(context.Background()).Err(); err != nil {
		suite.T().Fatalf("Failed to flush redis: %v", err)
	}
}

func (suite *SequenceTestSuite) TestNextID() {
	ctx := context.Background()

	suite.Run("starts after the seed", func() {
		seq := redisrepo.NewSequence(suite.client, "")

		id, err := seq.NextID(ctx)
		suite.Require().NoError(err)
		suite.Equal(int64(1025), id)
		suite.Equal("gx", base62.Encode(uint64(id)))

		id, err = seq.NextID(ctx)
		suite.Require().NoError(err)
		suite.Equal(int64(1026), id)
	})

	suite.Run("concurrent callers get unique ids", func() {
		seq := redisrepo.NewSequence(suite.client, "test:counter")

		const workers = 20

		var (
			mu  sync.Mutex
			wg  sync.WaitGroup
			ids = make(map[int64]struct{}, workers)
		)

		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				id, err := seq.NextID(ctx)
				suite.NoError(err)

				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		suite.Len(ids, workers)
	})
}

func TestSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite.Run(t, new(SequenceTestSuite))
}
