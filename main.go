package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/handlers"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/httpapi"
)

func main() {
	db, err := sql.Open(config.SQLDriver, config.SQLDSN)
	if err != nil {
		log.Fatalln("Could not open database:", err)
	}

	var llm llms.Model
	if config.AIEndpoint == "" {
		log.Println("AGENT_AIENDPOINT is not configured; chat responses are disabled")
	} else {
		opts := []openai.Option{openai.WithBaseURL(config.AIEndpoint)}
		if config.AIModel != "" {
			opts = append(opts, openai.WithModel(config.AIModel))
		}
		if config.AIAPIKey != "" {
			opts = append(opts, openai.WithToken(config.AIAPIKey))
		}

		client, err := openai.New(opts...)
		if err != nil {
			log.Fatalln("Could not create AI client:", err)
		}
		llm = client
	}

	files, err := api.NewFileStore(config.UploadDir)
	if err != nil {
		log.Fatalln("Could not open upload store:", err)
	}

	approvals := agent.NewApprovalStore(config.ApprovalMode, time.Minute*time.Duration(config.ApprovalTTL))

	engine := agent.NewEngine(llm, agent.NewExecutor(db), approvals, agent.Config{
		SystemPrompt:       config.SystemPrompt,
		HistoryTokenBudget: config.HistoryTokenBudget,
		MaxToolIterations:  config.MaxToolIterations,
	})

	r := httpapi.NewRouter(os.Stdout, db, &httpapi.RouterConfig{
		Engine:         engine,
		LLM:            llm,
		Approvals:      approvals,
		Cache:          api.NewMessageCache(config.CacheMaxBytes),
		Files:          files,
		MaxUploadBytes: config.MaxUploadBytes,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	chain := cors(handlers.CompressHandler(http.StripPrefix(config.Prefix, r)))

	log.Println("Listening on:", config.ListenAddr)
	log.Println(http.ListenAndServe(config.ListenAddr, chain))
}
