// Package main provides a load testing tool for realtime notification delivery.
//
// It opens many websocket sessions for a post owner, then has a second user
// toggle the like on one of the owner's posts. Every like that lands should
// reach every open session once.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"unigram/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	LikesLanded          int64
	Toggles              int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	ownerID := flag.Uint("owner", 1, "User id that owns the post and listens for notifications")
	fanID := flag.Uint("fan", 2, "User id that toggles the like")
	postID := flag.Uint("post", 1, "Post id owned by -owner")
	clients := flag.Int("clients", 50, "Number of concurrent websocket sessions for the owner")
	interval := flag.Duration("interval", time.Second, "Delay between like toggles")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting notification load test")
	log.Printf("Target: %s", *host)
	log.Printf("Sessions: %d, toggle interval: %v, duration: %v", *clients, *interval, *duration)

	ownerToken, err := mintToken(cfg, *ownerID)
	if err != nil {
		log.Fatalf("Failed to sign owner token: %v", err)
	}
	fanToken, err := mintToken(cfg, *fanID)
	if err != nil {
		log.Fatalf("Failed to sign fan token: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, ownerToken, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	wg.Add(1)
	go runToggler(*host, fanToken, *postID, *interval, stopChan, &wg)

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

// mintToken signs a short-lived token the server's auth middleware accepts.
func mintToken(cfg *config.Config, userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"jti": uuid.NewString(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if cfg.JWTIssuer != "" {
		claims["iss"] = cfg.JWTIssuer
	}
	if cfg.JWTAudience != "" {
		claims["aud"] = cfg.JWTAudience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func runToggler(host, token string, postID uint, interval time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	client := &http.Client{Timeout: 5 * time.Second}
	likeURL := fmt.Sprintf("http://%s/api/posts/%d/like", host, postID)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			liked, err := toggle(client, likeURL, token)
			atomic.AddInt64(&metrics.Toggles, 1)
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			if liked {
				atomic.AddInt64(&metrics.LikesLanded, 1)
			}
		}
	}
}

func toggle(client *http.Client, likeURL, token string) (bool, error) {
	req, err := http.NewRequest(http.MethodPut, likeURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("toggle like failed with status %d", resp.StatusCode)
	}

	var result struct {
		Liked bool `json:"liked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Liked, nil
}

func runClient(host, token string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(msg, &env) == nil && env.Type != "" {
				atomic.AddInt64(&metrics.EventsReceived, 1)
			}
		}
	}()

	<-stopChan
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func printMetrics() {
	success := atomic.LoadInt64(&metrics.ConnectionsSuccess)
	landed := atomic.LoadInt64(&metrics.LikesLanded)

	log.Println("Test Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", success)
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Toggles: %d (likes landed: %d)", atomic.LoadInt64(&metrics.Toggles), landed)
	log.Printf("Events Received: %d (expected up to %d)", atomic.LoadInt64(&metrics.EventsReceived), landed*success)
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
