package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the API payload for vehicle registration.
type Vehicle struct {
	VIN     string `json:"vin"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	Mileage int    `json:"mileage"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var fleet = []struct {
	Make   string
	Models []string
}{
	{"Toyota", []string{"Camry", "Corolla", "RAV4"}},
	{"Honda", []string{"Civic", "Accord", "CR-V"}},
	{"Ford", []string{"F-150", "Escape", "Focus"}},
	{"Chevrolet", []string{"Silverado", "Malibu", "Equinox"}},
	{"BMW", []string{"328i", "X5", "M3"}},
	{"Mercedes-Benz", []string{"C300", "E350", "GLC"}},
	{"Audi", []string{"A4", "Q5", "A6"}},
	{"Porsche", []string{"911", "Cayenne", "Macan"}},
}

const vinChars = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

func randomVIN() string {
	b := make([]byte, 17)
	for i := range b {
		b[i] = vinChars[rand.Intn(len(vinChars))]
	}
	return string(b)
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

// login registers a throwaway customer account and signs in, reusing the
// account when it already exists from a previous run.
func login(apiURL string) error {
	username := os.Getenv("SIM_USERNAME")
	if username == "" {
		username = "sim-customer"
	}
	password := os.Getenv("SIM_PASSWORD")
	if password == "" {
		password = "simulate-me-1"
	}

	reg := registerRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  password,
		FirstName: "Sim",
		LastName:  "Customer",
	}
	data, _ := json.Marshal(reg)
	if resp, err := authorizedPost(apiURL+"/auth/register", bytes.NewBuffer(data)); err == nil {
		resp.Body.Close()
	}

	data, _ = json.Marshal(loginRequest{Username: username, Password: password})
	resp, err := authorizedPost(apiURL+"/auth/login", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	token, ok := result["token"].(string)
	if !ok {
		return fmt.Errorf("no token in login response")
	}
	authToken = token
	log.WithField("username", username).Info("Logged in")
	return nil
}

func createVehicle(apiURL string) (string, error) {
	entry := fleet[rand.Intn(len(fleet))]
	vehicle := Vehicle{
		VIN:     randomVIN(),
		Make:    entry.Make,
		Model:   entry.Models[rand.Intn(len(entry.Models))],
		Year:    2000 + rand.Intn(26), // 2000-2025, some old enough to fail often
		Mileage: rand.Intn(280000),
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vehicle: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/vehicles", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("vehicle creation failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	vehicleID, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"make":       vehicle.Make,
		"model":      vehicle.Model,
		"year":       vehicle.Year,
		"mileage":    vehicle.Mileage,
	}).Info("Created vehicle")
	return vehicleID, nil
}

func runScan(apiURL, vehicleID string) {
	data, _ := json.Marshal(map[string]string{"vehicle_id": vehicleID})
	resp, err := authorizedPost(apiURL+"/diagnostics/scan", bytes.NewBuffer(data))
	if err != nil {
		log.WithError(err).Error("Failed to run scan")
		return
	}
	defer resp.Body.Close()

	var result struct {
		Codes []struct {
			Code     string `json:"code"`
			Severity string `json:"severity"`
		} `json:"codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).Error("Failed to decode scan response")
		return
	}
	codes := make([]string, 0, len(result.Codes))
	for _, c := range result.Codes {
		codes = append(codes, c.Code)
	}
	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"codes":      codes,
		"status":     resp.Status,
	}).Info("Ran diagnostic scan")

	// Ask the chat side to explain one of the codes, exercising the
	// explanation path the way a customer would.
	if len(codes) > 0 {
		explainCode(apiURL, vehicleID, codes[rand.Intn(len(codes))])
	}
}

func explainCode(apiURL, vehicleID, code string) {
	url := fmt.Sprintf("%s/diagnostics/codes/%s?vehicle_id=%s", apiURL, code, vehicleID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Error("Failed to fetch code explanation")
		return
	}
	defer resp.Body.Close()
	log.WithFields(log.Fields{"code": code, "status": resp.Status}).Info("Fetched code explanation")
}

func simulateVehicle(apiURL, vehicleID string, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		runScan(apiURL, vehicleID)
	}
}

func main() {
	fleetSize := 5
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			fleetSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := 30 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting diagnostic simulation")

	if err := login(apiURL); err != nil {
		log.WithError(err).Fatal("Could not authenticate with API")
	}

	vehicleIDs := make([]string, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		id, err := createVehicle(apiURL)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		vehicleIDs = append(vehicleIDs, id)
	}

	log.WithField("created_vehicles", len(vehicleIDs)).Info("Vehicle creation completed")
	if len(vehicleIDs) == 0 {
		log.Error("No vehicles created. Ensure the API is reachable. Exiting.")
		return
	}

	for _, id := range vehicleIDs {
		go simulateVehicle(apiURL, id, interval)
	}

	log.Info("Scan simulation started")
	select {} // Block forever
}
