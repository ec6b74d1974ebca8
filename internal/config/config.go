package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

type ServerConfig struct {
	ListenPort  int
	HTTPAddress string
	DatabaseDSN string
	JournalFile string
	ForwardURL  string
	Retention   int
}

func NewServerConfig() (*ServerConfig, error) {
	config := &ServerConfig{}

	listenPort := flag.Int("listen-port", DefaultListenPort, "UDP port receiving metric envelopes")
	httpAddress := flag.String("http-address", DefaultHTTPAddress, "Address for the HTTP API")
	databaseDSN := flag.String("database-dsn", "", "PostgreSQL DSN, empty keeps envelopes in memory")
	journalFile := flag.String("journal-file", "", "File receiving one raw envelope per line, empty disables")
	forwardURL := flag.String("forward-url", "", "URL receiving every envelope via HTTP POST, empty disables")
	retention := flag.Int("retention", DefaultRetention, "Envelopes retained per host by the in-memory storage")
	flag.Parse()

	envStrVars := map[string]*string{
		"HTTP_ADDRESS": httpAddress,
		"DATABASE_DSN": databaseDSN,
		"JOURNAL_FILE": journalFile,
		"FORWARD_URL":  forwardURL,
	}

	envIntVars := map[string]*int{
		"LISTEN_PORT": listenPort,
		"RETENTION":   retention,
	}

	for envVar, target := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*target = envValue
		}
	}

	for envVar, target := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			parsed, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", envVar, envValue, err)
			}
			*target = parsed
		}
	}

	config.ListenPort = *listenPort
	config.HTTPAddress = *httpAddress
	config.DatabaseDSN = *databaseDSN
	config.JournalFile = *journalFile
	config.ForwardURL = *forwardURL
	config.Retention = *retention

	if config.ListenPort < 1 || config.ListenPort > 65535 {
		return nil, fmt.Errorf("invalid listen port %d", config.ListenPort)
	}
	if config.Retention < 1 {
		return nil, fmt.Errorf("invalid retention %d", config.Retention)
	}

	return config, nil
}
