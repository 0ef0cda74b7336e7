package transport

import (
	"encoding/json"
	"log"
	"net/http"
)

// Result is the uniform response envelope. Errors never cross the handler
// boundary as anything other than a flat string; validation failures carry a
// per-field map so the UI can annotate inputs.
type Result struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func SendServerRes(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Result{Success: true, Data: data}); err != nil {
		log.Println("ERR: Error writing response:", err)
	}
}

// SendErrorRes logs the internal error with context and surfaces only the
// generic message to the caller.
func SendErrorRes(w http.ResponseWriter, msg string, status int, err error) {
	internalMsg := "ERR: " + msg
	if err != nil {
		internalMsg += " || Internal error msg: " + err.Error()
	}
	log.Println(internalMsg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(Result{Success: false, Error: msg}); encErr != nil {
		log.Println("ERR: Error writing response:", encErr)
	}
}

// SendValidationRes surfaces field-level messages for schema failures.
func SendValidationRes(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(Result{Success: false, Error: "validation failed", Fields: fields}); err != nil {
		log.Println("ERR: Error writing response:", err)
	}
}

func SendCsvRes(w http.ResponseWriter, body []byte, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Println("ERR: Error writing CSV response:", err)
	}
}
