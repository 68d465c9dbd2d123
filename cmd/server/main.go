package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	googleai "github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/agent"
	"github.com/sentinai/sentin/internal/docstore"
	"github.com/sentinai/sentin/internal/eventbus"
	"github.com/sentinai/sentin/internal/notify"
	"github.com/sentinai/sentin/internal/runtime"
	"github.com/sentinai/sentin/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("SENTIN_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := sentin.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()

	// Inventory for the planning prompt; rebound to live state once the
	// runtime exists.
	inventoryFn := func() map[string]int { return cfg.Inventory }

	var generator sentin.PlanGenerator
	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Println("GEMINI_API_KEY not set; running in safe mode without automated planning")
		generator = agent.SafeModeGenerator()
	} else {
		pluginLoader, err := genkit.Init(ctx,
			genkit.WithPlugins(&googleai.GoogleAI{}),
			genkit.WithDefaultModel("googleai/gemini-1.5-flash"),
		)
		if err != nil {
			log.Fatal("Genkit initialization failed:", err)
		}
		defer pluginLoader.Shutdown(ctx)

		planFlow := genkit.DefineFlow(pluginLoader, "surgePlanFlow",
			func(ctx context.Context, state *sentin.RiskState) (*sentin.ActionPlan, error) {
				prompt := agent.BuildPrompt(*state, inventoryFn())

				resp, err := genkit.Generate(ctx, pluginLoader,
					ai.WithPrompt(prompt),
					genkit.WithOutputSchema("plan", &sentin.ActionPlan{}),
					genkit.WithCandidateCount(1),
				)
				if err != nil {
					return nil, fmt.Errorf("plan generation failed: %w", err)
				}

				plan, ok := resp.Output.(*sentin.ActionPlan)
				if !ok || plan == nil {
					return nil, fmt.Errorf("failed to parse action plan from model output")
				}
				return plan, nil
			},
		)
		generator = agent.NewGenkitPlanAdapter(planFlow)
	}

	store, err := docstore.NewFileDocumentStore(cfg.OrdersDir, nil)
	if err != nil {
		log.Fatal("Failed to open order store:", err)
	}

	var notifier sentin.Notifier = notify.LogNotifier{}
	if endpoint := os.Getenv("SENTIN_ALERT_WEBHOOK"); endpoint != "" {
		notifier = notify.NewWebhookNotifier(endpoint, nil)
	}

	rt, err := runtime.New(ctx,
		runtime.WithConfig(cfg),
		runtime.WithGenerator(generator),
		runtime.WithFallback(agent.ManualFallbackPlan),
		runtime.WithNotifier(notifier),
		runtime.WithDocumentStore(store),
	)
	if err != nil {
		log.Fatal("Failed to build runtime:", err)
	}
	defer rt.Close()
	inventoryFn = func() map[string]int { return rt.State().Inventory() }

	if bus := rt.Bus(); bus != nil {
		bus.SubscribeAll(func(ctx context.Context, e eventbus.Event) error {
			log.Printf("Event (type: %s, source: %s)", e.Type, e.Source)
			return nil
		})
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(rt),
	}

	go func() {
		log.Printf("Listening (addr: %s)", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	waitForShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutdown signal received")
}
