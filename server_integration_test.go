package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"brokerdesk/models"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	_ = os.Setenv("UPLOAD_BASE", t.TempDir())
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp := performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login %s failed status=%d body=%s", username, resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func createTransaction(t *testing.T, r *gin.Engine, token string, payload map[string]any) uint {
	body, _ := json.Marshal(payload)
	resp := performRequest(r, http.MethodPost, "/financial/transactions", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created struct {
		Transaction models.Transaction `json:"transaction"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created.Transaction.ID == 0 {
		t.Fatalf("created transaction has no id: %s", resp.Body.String())
	}
	return created.Transaction.ID
}

func TestFinancialFlow(t *testing.T) {
	r := setupTestServer(t)
	token := loginAs(t, r, "admin", "admin123")

	// seeded payment type for pay calls
	var pt models.PaymentType
	if err := db.First(&pt).Error; err != nil {
		t.Fatalf("no seeded payment type: %v", err)
	}

	// 1. rent without property/contract: both fields reported together
	body, _ := json.Marshal(map[string]any{
		"type": "receivable", "description": "rent unit 7", "amount": 1200,
		"due_date": "2025-10-05", "category": "rent",
	})
	resp := performRequest(r, http.MethodPost, "/financial/transactions", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", resp.Code, resp.Body.String())
	}
	var verr struct {
		Errors map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &verr)
	if _, ok := verr.Errors["property_id"]; !ok {
		t.Fatalf("expected property_id error, got %v", verr.Errors)
	}
	if _, ok := verr.Errors["contract_id"]; !ok {
		t.Fatalf("expected contract_id error, got %v", verr.Errors)
	}

	// 2. valid create; defaults to pending
	id := createTransaction(t, r, token, map[string]any{
		"type": "receivable", "description": "consulting fee", "amount": 350.50,
		"due_date": "2025-10-10", "category": "other",
	})
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/financial/transactions/%d", id), nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("get transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var got struct {
		Transaction models.Transaction `json:"transaction"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Transaction.Status != models.StatusPending {
		t.Fatalf("expected pending status got %s", got.Transaction.Status)
	}
	if got.Transaction.PaymentDate != nil {
		t.Fatalf("new transaction must have no payment date")
	}

	// 3. pay it (multipart, with a PDF receipt)
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("payment_date", "2025-10-08")
	_ = mw.WriteField("payment_type_id", fmt.Sprintf("%d", pt.ID))
	_ = mw.WriteField("notes", "settled early")
	fw, _ := mw.CreateFormFile("receipt", "receipt.pdf")
	_, _ = fw.Write([]byte("%PDF-1.4 fake receipt"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/financial/transactions/%d/pay", id), buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("pay failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var paid struct {
		Transaction models.Transaction `json:"transaction"`
		ReceiptURL  string             `json:"receipt_url"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &paid)
	if paid.Transaction.Status != models.StatusPaid {
		t.Fatalf("expected paid got %s", paid.Transaction.Status)
	}
	if paid.Transaction.PaymentDate == nil || paid.Transaction.PaymentTypeID == nil {
		t.Fatalf("pay must set payment_date and payment_type_id: %s", resp.Body.String())
	}
	if paid.ReceiptURL == "" {
		t.Fatalf("expected receipt_url in pay response")
	}

	// 4. paying again is an invalid state
	buf2 := &bytes.Buffer{}
	mw2 := multipart.NewWriter(buf2)
	_ = mw2.WriteField("payment_date", "2025-10-09")
	_ = mw2.WriteField("payment_type_id", fmt.Sprintf("%d", pt.ID))
	_ = mw2.Close()
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/financial/transactions/%d/pay", id), buf2, token, mw2.FormDataContentType())
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double pay got %d", resp.Code)
	}

	// 5. cancelling a paid transaction is an invalid state
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/financial/transactions/%d/cancel", id), nil, token, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on cancelling paid got %d", resp.Code)
	}

	// 6. cancel a fresh pending transaction
	id2 := createTransaction(t, r, token, map[string]any{
		"type": "payable", "description": "office cleaning", "amount": 80,
		"due_date": "2025-10-15", "category": "maintenance",
	})
	cancelBody, _ := json.Marshal(map[string]string{"notes": "vendor dropped out"})
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/financial/transactions/%d/cancel", id2), bytes.NewBuffer(cancelBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("cancel failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var cancelled struct {
		Transaction models.Transaction `json:"transaction"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &cancelled)
	if cancelled.Transaction.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Transaction.Status)
	}
	if cancelled.Transaction.PaymentDate != nil || cancelled.Transaction.PaymentTypeID != nil {
		t.Fatalf("cancel must clear payment fields")
	}
	if cancelled.Transaction.Notes != "vendor dropped out" {
		t.Fatalf("cancel must replace notes, got %q", cancelled.Transaction.Notes)
	}

	// notes must also survive bodies with no Content-Length header
	// (chunked transfers report -1; direct ServeHTTP reports 0)
	id3 := createTransaction(t, r, token, map[string]any{
		"type": "payable", "description": "window repair", "amount": 120,
		"due_date": "2025-10-20", "category": "maintenance",
	})
	noLenBody, _ := json.Marshal(map[string]string{"notes": "tenant fixed it themselves"})
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/financial/transactions/%d/cancel", id3),
		io.MultiReader(bytes.NewReader(noLenBody)), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("cancel without content length failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var cancelled3 struct {
		Transaction models.Transaction `json:"transaction"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &cancelled3)
	if cancelled3.Transaction.Notes != "tenant fixed it themselves" {
		t.Fatalf("notes dropped on request with unknown length, got %q", cancelled3.Transaction.Notes)
	}

	// 7. reports respond
	for _, path := range []string{
		"/financial/summary",
		"/financial/cash-flow?start_date=2025-10-01&end_date=2025-10-31",
		"/financial/transactions?due=overdue&now=2025-10-20",
		"/financial/commissions",
		"/financial/rentals",
		"/financial/sales",
	} {
		resp = performRequest(r, http.MethodGet, path, nil, token, "")
		if resp.Code != 200 {
			t.Fatalf("GET %s failed status=%d body=%s", path, resp.Code, resp.Body.String())
		}
	}

	// 8. soft delete, then 404
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/financial/transactions/%d", id2), nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/financial/transactions/%d", id2), nil, token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for soft-deleted transaction got %d", resp.Code)
	}

	// 9. a user without manage_financial gets 403
	regBody, _ := json.Marshal(map[string]string{"username": "agent1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	agentToken := loginAs(t, r, "agent1", "pass123")
	resp = performRequest(r, http.MethodGet, "/financial/transactions", nil, agentToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for agent got %d", resp.Code)
	}

	// 10. missing token is 401
	resp = performRequest(r, http.MethodGet, "/financial/transactions", nil, "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
