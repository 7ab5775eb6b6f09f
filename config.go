package main

import (
	"log"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

//Config represents options given in the environment
type Config struct {
	SQLDriver string //required
	SQLDSN    string //required

	ListenAddr string //addr format used for net.Dial; required
	Prefix     string //url prefix to mount api to without trailing slash

	AIEndpoint string //OpenAI compatible API base url; chat is disabled if empty
	AIModel    string //model name passed to the API
	AIAPIKey   string //bearer token for the API

	SystemPrompt string //overrides the built in system prompt

	UploadDir      string //where upload content is stored; default: uploads
	MaxUploadBytes int64  //default: 33554432 (32MB)

	CacheMaxBytes int //message cache bound; default: 8388608 (8MB)

	HistoryTokenBudget int    //tokens of history sent to the model; default: 6000
	MaxToolIterations  int    //tool round trips per turn; default: 8
	ApprovalMode       string //auto or prompt; default: auto
	ApprovalTTL        int    //in minutes; how long a prompted tool call waits; default: 5
}

var config = &Config{}

func checkEmpty(val, name string) {
	if val == "" {
		log.Fatalf("AGENT_%s must be configured\n", name)
	}
}

func init() {
	err := envconfig.Process("AGENT", config)
	if err != nil {
		log.Fatalln("Error reading configuration from environment:", err)
	}

	checkEmpty(config.SQLDriver, "SQLDRIVER")
	checkEmpty(config.SQLDSN, "SQLDSN")

	if config.SQLDriver == "mysql" && !strings.Contains(config.SQLDSN, "?parseTime=true") {
		log.Fatalln("mysql DSN must contain \"?parseTime=true\"")
	}

	checkEmpty(config.ListenAddr, "LISTENADDR")

	if config.UploadDir == "" {
		config.UploadDir = "uploads"
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 32 << 20
	}
	if config.CacheMaxBytes == 0 {
		config.CacheMaxBytes = 8 << 20
	}
	if config.HistoryTokenBudget == 0 {
		config.HistoryTokenBudget = 6000
	}
	if config.MaxToolIterations == 0 {
		config.MaxToolIterations = 8
	}
	if config.ApprovalMode == "" {
		config.ApprovalMode = "auto"
	}
	if config.ApprovalMode != "auto" && config.ApprovalMode != "prompt" {
		log.Fatalf("AGENT_APPROVALMODE must be auto or prompt, not %s\n", config.ApprovalMode)
	}
	if config.ApprovalTTL == 0 {
		config.ApprovalTTL = 5
	}
}
