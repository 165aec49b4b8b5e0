package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultMaxUploadMB = 10

// config holds the settings read from the environment after .env is loaded.
// Store selection is read by the stores package itself.
type config struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

func loadConfig() config {
	cfg := config{
		MaxUploadBytes: defaultMaxUploadMB << 20,
		AllowedOrigins: []string{"https://*", "http://*"},
	}

	if raw := os.Getenv("MAX_UPLOAD_MB"); raw != "" {
		mb, err := strconv.Atoi(raw)
		if err != nil || mb <= 0 {
			logrus.WithField("MAX_UPLOAD_MB", raw).Warnf("Invalid upload limit, using %d MB", defaultMaxUploadMB)
		} else {
			cfg.MaxUploadBytes = int64(mb) << 20
		}
	}

	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	return cfg
}
