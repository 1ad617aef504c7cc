package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

const userID = "e2e-user"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Create a transaction (category left empty to exercise the categorizer)
	createTransaction()

	// 3. Trigger an automation run for the current period
	checkEndpoint("POST", "/automation/run", map[string]string{}, 200)

	// 4. Re-run: idempotent, same insight set
	checkEndpoint("POST", "/automation/run", map[string]string{}, 200)

	// 5. Read back insights, settings, metrics, report
	checkEndpoint("GET", "/insights", nil, 200)
	checkEndpoint("GET", "/settings", nil, 200)
	checkEndpoint("GET", "/portfolio/metrics", nil, 200)
	checkEndpoint("GET", "/report", nil, 200)

	// 6. Download the spreadsheet artifact
	checkEndpoint("GET", "/report/export", nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Email", userID+"@example.com")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		payload, _ := io.ReadAll(resp.Body)
		log.Fatalf("%s %s: expected status %d, got %d: %s", method, path, expectedStatus, resp.StatusCode, payload)
	}
}

func createTransaction() {
	body := map[string]interface{}{
		"account_id":  "00000000-0000-0000-0000-000000000000",
		"description": "UBER *TRIP e2e",
		"type":        "expense",
		"amount":      "38.90",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", baseURL+"/transactions", bytes.NewBuffer(jsonBody))
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create transaction failed: %v", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	fmt.Printf("Created transaction: %s\n", payload)
}
