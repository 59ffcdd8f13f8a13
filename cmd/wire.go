package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/mkrv/qabot/internal/adapters/authz"
	openaiembed "github.com/mkrv/qabot/internal/adapters/embed/openai"
	"github.com/mkrv/qabot/internal/adapters/repo/jsonfile"
	tomlrepo "github.com/mkrv/qabot/internal/adapters/repo/toml"
	"github.com/mkrv/qabot/internal/application"
	"github.com/mkrv/qabot/internal/metrics"
	"github.com/mkrv/qabot/internal/ports"
)

type app struct {
	pool    *application.CredentialPool
	embed   *application.EmbedService
	index   *application.IndexService
	edits   *application.EditService
	gateway *application.Gateway
	clock   ports.Clock
}

func wireApp() (*app, error) {
	cfg := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".qabot")

	cfg.SetDefault("embedding.model", "text-embedding-3-small")
	cfg.SetDefault("embedding.dimensions", 1536)
	cfg.SetDefault("embedding.base_url", "")
	cfg.SetDefault("embedding.timeout", "10s")
	cfg.SetDefault("similarity.threshold", application.DefaultSimilarityThreshold)
	cfg.SetDefault("message.stale_after", "60s")
	cfg.SetDefault("session.timeout", "")
	cfg.SetDefault("chat.allowed", []int64{})
	cfg.SetDefault("admin.ids", []int64{})
	cfg.SetDefault("storage.records_path", filepath.Join(dataDir, "qa.json"))
	cfg.SetDefault("storage.cache_dir", filepath.Join(dataDir, "cache"))

	credentialRepo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire credential repository: %w", err)
	}

	credentials, err := credentialRepo.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	clock := ports.SystemClock{}
	pool, err := application.NewCredentialPool(credentials, clock)
	if err != nil {
		return nil, fmt.Errorf("wire credential pool: %w", err)
	}

	recordRepo, err := jsonfile.NewRecordRepository(cfg.GetString("storage.records_path"))
	if err != nil {
		return nil, fmt.Errorf("wire record repository: %w", err)
	}

	cacheRepo, err := jsonfile.NewCacheRepository(cfg.GetString("storage.cache_dir"))
	if err != nil {
		return nil, fmt.Errorf("wire cache repository: %w", err)
	}

	set := metrics.New(prometheus.NewRegistry())

	backend := openaiembed.NewClient(
		cfg.GetString("embedding.base_url"),
		cfg.GetString("embedding.model"),
		cfg.GetInt("embedding.dimensions"),
		http.DefaultClient,
	)

	embed := application.NewEmbedService(pool, backend, cfg.GetDuration("embedding.timeout"), set)
	cache := application.NewVectorCache(cacheRepo, cfg.GetString("embedding.model"), set)
	index := application.NewIndexService(recordRepo, cache, embed, cfg.GetFloat64("similarity.threshold"), set)

	sessionTimeout := cfg.GetDuration("session.timeout")
	if sessionTimeout <= 0 {
		sessionTimeout = cfg.GetDuration("message.stale_after")
	}

	// With no admin list configured the CLI operator is trusted; a chat
	// transport wiring this core should always provide one.
	var authorizer ports.Authorizer
	if adminIDs := int64Slice(cfg, "admin.ids"); len(adminIDs) > 0 {
		authorizer = authz.New(adminIDs)
	}

	edits := application.NewEditService(recordRepo, index, authorizer, clock, sessionTimeout)

	gateway := application.NewGateway(
		embed,
		index,
		edits,
		clock,
		cfg.GetDuration("message.stale_after"),
		int64Slice(cfg, "chat.allowed"),
		set,
	)

	return &app{
		pool:    pool,
		embed:   embed,
		index:   index,
		edits:   edits,
		gateway: gateway,
		clock:   clock,
	}, nil
}

func int64Slice(cfg *viper.Viper, key string) []int64 {
	values := cfg.GetIntSlice(key)
	out := make([]int64, 0, len(values))
	for _, v := range values {
		out = append(out, int64(v))
	}
	return out
}

// contextWithTimeout bounds CLI invocations so a wedged remote never hangs
// the terminal.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
