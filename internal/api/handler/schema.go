package handler

import "github.com/redeclipse/mastersession/internal/core/domain"

type sessionRequest struct {
	Token string `query:"token" form:"token" json:"token"`
}

type loginRequest struct {
	Username string `form:"username" json:"username" validate:"required,max=64"`
	Password string `form:"password" json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `form:"username" json:"username" validate:"required,max=64"`
	Password string `form:"password" json:"password" validate:"required"`
	Email    string `form:"email"    json:"email"    validate:"required,max=254"`
}

type logoutRequest struct {
	Token string `form:"token" json:"token"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

type setLevelRequest struct {
	Username string `param:"username"`
	Level    string `form:"level" json:"level" validate:"required"`
}

type profileResponse struct {
	User *domain.Profile `json:"user"`
}

type registerServerRequest struct {
	Name string `form:"name" json:"name" validate:"required,max=64"`
	Port int    `form:"port" json:"port" validate:"required"`
}

type heartbeatRequest struct {
	Key string `form:"key" json:"key" validate:"required"`
}

type serverKeyResponse struct {
	Key string `json:"key"`
}

type serverListResponse struct {
	Servers []domain.GameServer `json:"serverlist"`
}
