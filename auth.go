package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"log"
	"math/big"
	"net/http"
	"strconv"
)

const sessionCookieName = "werebot_session"

// authHandler serves signup, login, and logout over the stats store's
// player and session tables.
type authHandler struct {
	stats *StatsStore
}

func generateSecretCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (a *authHandler) setSessionCookie(w http.ResponseWriter, playerID int64) {
	tokenBig, _ := rand.Int(rand.Reader, big.NewInt(1<<62))
	token := tokenBig.Int64()

	a.stats.db.Exec("INSERT INTO session (token, player_id) VALUES (?, ?)", token, playerID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    strconv.FormatInt(token, 10),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// accountFromSession resolves the request's session cookie to an account
// name, or "" when not logged in.
func (a *authHandler) accountFromSession(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	token, err := strconv.ParseInt(cookie.Value, 10, 64)
	if err != nil {
		return ""
	}
	var account string
	err = a.stats.db.Get(&account, `
		SELECT p.account FROM session s JOIN player p ON s.player_id = p.rowid
		WHERE s.token = ?`, token)
	if err != nil {
		return ""
	}
	return account
}

func (a *authHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	account := r.FormValue("account")
	if account == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account is required"})
		return
	}

	var existing string
	err := a.stats.db.Get(&existing, "SELECT account FROM player WHERE account = ?", account)
	if err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "account already taken, log in with your secret code"})
		return
	}
	if err != sql.ErrNoRows {
		log.Printf("handleSignup: lookup %q: %v", account, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
		return
	}

	secretCode, err := generateSecretCode()
	if err != nil {
		log.Printf("handleSignup: generateSecretCode: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
		return
	}

	result, err := a.stats.db.Exec("INSERT INTO player (account, secret_code) VALUES (?, ?)", account, secretCode)
	if err != nil {
		log.Printf("handleSignup: insert %q: %v", account, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
		return
	}

	playerID, _ := result.LastInsertId()
	log.Printf("New account created: account='%s', id=%d", account, playerID)

	a.setSessionCookie(w, playerID)
	writeJSON(w, http.StatusOK, map[string]string{"account": account, "secret_code": secretCode})
}

func (a *authHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	account := r.FormValue("account")
	secretCode := r.FormValue("secret_code")
	if account == "" || secretCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account and secret code are required"})
		return
	}

	var playerID int64
	err := a.stats.db.Get(&playerID, "SELECT rowid FROM player WHERE account = ? AND secret_code = ?", account, secretCode)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid account or secret code"})
		return
	}
	if err != nil {
		log.Printf("handleLogin: lookup %q: %v", account, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
		return
	}

	log.Printf("Account logged in: account='%s', id=%d", account, playerID)
	a.setSessionCookie(w, playerID)
	writeJSON(w, http.StatusOK, map[string]string{"account": account})
}

func (a *authHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	account := a.accountFromSession(r)

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		token, _ := strconv.ParseInt(cookie.Value, 10, 64)
		a.stats.db.Exec("DELETE FROM session WHERE token = ?", token)
	}

	log.Printf("Account logged out: account='%s'", account)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
