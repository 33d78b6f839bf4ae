package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizgame-service/internal/app"
	"quizgame-service/internal/domain"
	"quizgame-service/internal/infra/memory"
	pgstore "quizgame-service/internal/infra/postgres"
	"quizgame-service/internal/infra/postgres/migrations"
	infraredis "quizgame-service/internal/infra/redis"
)

// stubConn satisfies app.Conn for driving a game without websockets.
type stubConn struct{}

func (stubConn) Deliver(msg any) error { return nil }
func (stubConn) Alive() bool           { return true }

func TestRehostFromArchiveEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewQuestionSetStore(pool)
	if err := store.SaveQuestionSet(ctx, sampleSet()); err != nil {
		t.Fatalf("seed question set: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := infraredis.NewQuestionSetCache(redisClient, store, 5*time.Minute)

	registry := memory.NewGameRegistry(clockwork.NewFakeClock(), app.DefaultSettings(), 24*time.Hour)
	service := app.NewGameService(registry, cache, store)

	game, err := service.RehostGame(ctx, "SEED01")
	if err != nil {
		t.Fatalf("rehost: %v", err)
	}
	if game.ID() == "SEED01" {
		t.Fatalf("rehost must mint a fresh game code")
	}
	if n := redisClient.Exists(ctx, "questionset:SEED01").Val(); n != 1 {
		t.Fatalf("expected rehost to populate the redis cache")
	}

	// The rehosted game is archived under its own code for future rehosts.
	archived, err := store.LoadQuestionSet(ctx, game.ID())
	if err != nil {
		t.Fatalf("load archived set: %v", err)
	}
	if len(archived.Questions) != 1 {
		t.Fatalf("unexpected archived set: %+v", archived)
	}

	// Play a round against the rehosted game.
	alice, err := service.PlayerConnect(game.ID(), stubConn{})
	if err != nil {
		t.Fatalf("connect alice: %v", err)
	}
	service.PlayerJoin(game.ID(), alice, "Alice", "")
	bob, err := service.PlayerConnect(game.ID(), stubConn{})
	if err != nil {
		t.Fatalf("connect bob: %v", err)
	}
	service.PlayerJoin(game.ID(), bob, "Bob", "")

	service.HostCommand(game.ID(), "start_game")
	service.PlayerAnswer(game.ID(), alice, 1, 15)
	service.PlayerAnswer(game.ID(), bob, 0, 18)
	service.HostCommand(game.ID(), "show_results")

	lb := game.Leaderboard()
	if len(lb) != 2 || lb[0].Name != "Alice" || lb[0].Score != 1250 {
		t.Fatalf("expected alice leading with 1250, got %+v", lb)
	}
	if lb[1].Score != 0 {
		t.Fatalf("expected bob unscored, got %+v", lb[1])
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "SEED01",
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectIndex: 1},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
