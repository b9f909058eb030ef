package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"marketpulse/internal/domain"
	"marketpulse/internal/store"
)

// Enqueuer hands created tasks to the background worker.
type Enqueuer interface {
	Enqueue(taskID string)
}

type Server struct {
	r        *chi.Mux
	store    store.Store
	queue    Enqueuer
	validate *validator.Validate
}

func NewServer(st store.Store, q Enqueuer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, store: st, queue: q, validate: validator.New()}

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Get("/api/health", s.health)
	r.Post("/api/tasks", s.createTask)
	r.Get("/api/tasks", s.listTasks)
	r.Get("/api/tasks/{id}", s.getTask)
	r.Get("/api/tasks/{id}/data", s.getTaskData)

	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Data Sourcing and Visualization API",
		"api_endpoints": map[string]string{
			"GET /api/tasks":           "Get all tasks",
			"GET /api/tasks/{id}":      "Get a specific task by ID",
			"POST /api/tasks":          "Create a new task",
			"GET /api/tasks/{id}/data": "Get data for a specific task",
		},
		"version": "1.0.0",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "API is running",
	})
}

type createTaskReq struct {
	Name         string              `json:"name" validate:"max=100"`
	FilterParams domain.FilterParams `json:"filter_params"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "New Task"
	}

	t, err := s.store.CreateTask(r.Context(), req.Name, req.FilterParams)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.queue.Enqueue(t.ID)
	writeJSON(w, http.StatusCreated, taskJSON(t))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, taskJSON(t))
}

func (s *Server) getTaskData(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	// car_model is accepted for compatibility but matches no field.
	f := store.RecordFilter{
		Brand:    r.URL.Query().Get("company"),
		Category: r.URL.Query().Get("category"),
		Source:   r.URL.Query().Get("source"),
	}
	if f.YearFrom, err = yearParam(r, "year_from"); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.YearTo, err = yearParam(r, "year_to"); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.store.ListRecords(r.Context(), t.ID, f)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	data := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		data = append(data, recordJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task": taskJSON(t),
		"data": data,
	})
}

func yearParam(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return y, nil
}

func taskJSON(t domain.Task) map[string]any {
	return map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"status":        t.Status,
		"created_at":    t.CreatedAt.Format(time.RFC3339),
		"updated_at":    t.UpdatedAt.Format(time.RFC3339),
		"filter_params": t.FilterParams,
	}
}

func recordJSON(r domain.DataRecord) map[string]any {
	var purchase any
	if !r.PurchaseDate.IsZero() {
		purchase = r.PurchaseDate.Format(time.RFC3339)
	}
	return map[string]any{
		"id":             r.ID,
		"task_id":        r.TaskID,
		"source":         r.Source,
		"category":       r.Category,
		"brand":          r.Brand,
		"price":          r.Price,
		"purchase_date":  purchase,
		"quantity":       r.Quantity,
		"rating":         r.Rating,
		"platform":       r.Platform,
		"location":       r.Location,
		"payment_method": r.PaymentMethod,
		"product_id":     r.ProductID,
		"created_at":     r.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
