// Command seed_redis loads demo API keys and the expected route reference
// points into Redis for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"greenpulse/internal/config"
)

var demoKeys = map[string]string{
	"gp-dashboard-key": "dashboard",
	"gp-simulator-key": "simulator",
	"gp-ops-key":       "operations",
}

func main() {
	godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	divider("api keys")
	for key, name := range demoKeys {
		if err := rdb.Set(ctx, "apikey:"+key, name, 0).Err(); err != nil {
			log.Fatalf("seed key %s: %v", name, err)
		}
		fmt.Printf("  %-12s %s\n", name, key)
	}

	divider("route plan")
	for vehicleID, p := range cfg.ExpectedRoutes {
		err := rdb.HSet(ctx, "route:"+vehicleID, map[string]interface{}{
			"lat": p.Lat,
			"lon": p.Lon,
		}).Err()
		if err != nil {
			log.Fatalf("seed route %s: %v", vehicleID, err)
		}
		fmt.Printf("  %s (%.4f, %.4f)\n", vehicleID, p.Lat, p.Lon)
	}

	divider("done")
	log.Println("redis seeded")
}

func divider(step string) {
	fmt.Printf("──────────────── %s ────────────────\n", step)
}
