package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
)

func main() {
	log.SetPrefix("lg/fitness-rollup-api: ")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	pool := getDBPool(cfg.DBURL)
	defer pool.Close()

	h := newHandler(pool, newPGDocumentStore(pool), cfg)

	if cfg.PreloadFoodCatalog {
		// Requests fall back to per-id lookups until this finishes.
		go func() {
			if err := h.engine.foods.loadCatalog(context.Background()); err != nil {
				log.Printf("[main] food catalog preload failed: %v", err)
			}
		}()
	}

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	if err := router.Run(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
