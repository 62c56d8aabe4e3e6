package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Anveeka07/TaskManager/internal/service/auth"
	"github.com/Anveeka07/TaskManager/internal/service/task"
)

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload auth.RegisterInput
	if !r.decodeJSON(w, req, &payload) {
		return
	}
	session, err := r.auth.Register(req.Context(), payload)
	if err != nil {
		r.respondError(w, req, err, "Could not create account")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload auth.LoginInput
	if !r.decodeJSON(w, req, &payload) {
		return
	}
	session, err := r.auth.Login(req.Context(), payload)
	if err != nil {
		r.respondError(w, req, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for profile", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "Could not fetch profile")
		return
	}
	profile, err := r.auth.Profile(req.Context(), info.UserID)
	if err != nil {
		r.respondError(w, req, err, "Could not fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (r *Router) handleCreateTask(w http.ResponseWriter, req *http.Request) {
	info, ok := r.owner(w, req, "Failed to create task")
	if !ok {
		return
	}
	var payload task.Payload
	if !r.decodeJSON(w, req, &payload) {
		return
	}
	created, err := r.tasks.Create(req.Context(), info.UserID, payload)
	if err != nil {
		r.respondError(w, req, err, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleListTasks(w http.ResponseWriter, req *http.Request) {
	info, ok := r.owner(w, req, "Failed to fetch tasks")
	if !ok {
		return
	}
	tasks, err := r.tasks.List(req.Context(), info.UserID)
	if err != nil {
		r.respondError(w, req, err, "Failed to fetch tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) {
	info, ok := r.owner(w, req, "Failed to fetch task")
	if !ok {
		return
	}
	found, err := r.tasks.Get(req.Context(), info.UserID, chi.URLParam(req, "id"))
	if err != nil {
		r.respondError(w, req, err, "Failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (r *Router) handleUpdateTask(w http.ResponseWriter, req *http.Request) {
	info, ok := r.owner(w, req, "Failed to update task")
	if !ok {
		return
	}
	var payload task.Payload
	if !r.decodeJSON(w, req, &payload) {
		return
	}
	updated, err := r.tasks.Update(req.Context(), info.UserID, chi.URLParam(req, "id"), payload)
	if err != nil {
		r.respondError(w, req, err, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteTask(w http.ResponseWriter, req *http.Request) {
	info, ok := r.owner(w, req, "Failed to delete task")
	if !ok {
		return
	}
	if err := r.tasks.Delete(req.Context(), info.UserID, chi.URLParam(req, "id")); err != nil {
		r.respondError(w, req, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) owner(w http.ResponseWriter, req *http.Request, fallback string) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for task route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
	return info, ok
}
