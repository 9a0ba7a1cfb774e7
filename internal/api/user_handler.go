package api

import (
	"net/http"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (r UpdateProfileRequest) toDomain() service.ProfileUpdate {
	return service.ProfileUpdate{Name: r.Name, Email: r.Email, PhoneNumber: r.PhoneNumber}
}

type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8,max=72"`
	Roles    []string `json:"roles" binding:"required,min=1"`
}

type UpdateUserRequest struct {
	UpdateProfileRequest
	Roles []string `json:"roles" binding:"omitempty,min=1"`
}

type ProfileImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmProfileImageRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Profile ---

// GetMe godoc
// @Summary Get the authenticated user's profile
// @Tags Users
// @Security BearerAuth
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	p := principal(c)
	user, err := h.userService.GetProfile(c.Request.Context(), p, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// @Router /me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), principal(c), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// @Router /users/{userId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), principal(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// --- Identity graph ---

// AssignSpecialist godoc
// @Summary Link a specialist and a client in both directions
// @Tags Relations
// @Security BearerAuth
// @Success 200 {object} UserResponse "The updated client"
// @Failure 400 {object} envelope "Roles do not fit the relation"
// @Failure 403 {object} envelope "Not an administrator"
// @Router /clients/{clientId}/specialists/{specialistId} [post]
func (h *UserHandler) AssignSpecialist(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	specialistID, ok := objectIDParam(c, "specialistId")
	if !ok {
		return
	}
	client, err := h.userService.AssignSpecialist(c.Request.Context(), principal(c), clientID, specialistID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(client))
}

// @Router /clients/{clientId}/specialists/{specialistId} [delete]
func (h *UserHandler) UnassignSpecialist(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	specialistID, ok := objectIDParam(c, "specialistId")
	if !ok {
		return
	}
	client, err := h.userService.UnassignSpecialist(c.Request.Context(), principal(c), clientID, specialistID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(client))
}

// @Router /specialists/{specialistId}/clients [get]
func (h *UserHandler) ListClients(c *gin.Context) {
	specialistID, ok := objectIDParam(c, "specialistId")
	if !ok {
		return
	}
	clients, err := h.userService.ListClients(c.Request.Context(), principal(c), specialistID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUsersToResponse(clients))
}

// @Router /clients/{clientId}/specialists [get]
func (h *UserHandler) ListSpecialists(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	specialists, err := h.userService.ListSpecialists(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUsersToResponse(specialists))
}

// --- Administration ---

// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var role domain.Role
	if raw := c.Query("role"); raw != "" {
		r, err := domain.ParseRole(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		role = r
	}
	users, err := h.userService.ListUsers(c.Request.Context(), principal(c), role)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUsersToResponse(users))
}

// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	roles, err := domain.ParseRoles(req.Roles)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), principal(c), service.NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapUserToResponse(user))
}

// @Router /admin/users/{userId} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	update := service.UserUpdate{ProfileUpdate: req.toDomain()}
	if req.Roles != nil {
		roles, err := domain.ParseRoles(req.Roles)
		if err != nil {
			respondError(c, err)
			return
		}
		update.Roles = roles
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), principal(c), userID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// @Router /admin/users/{userId} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), principal(c), userID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// --- Profile image ---

// RequestProfileImageUploadURL godoc
// @Summary Get a presigned URL to upload a profile image directly to storage
// @Tags Users
// @Security BearerAuth
// @Param request body ProfileImageUploadRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Router /me/profile-image/upload-url [post]
func (h *UserHandler) RequestProfileImageUploadURL(c *gin.Context) {
	var req ProfileImageUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.RequestProfileImageUploadURL(c.Request.Context(), principal(c), req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

// @Router /me/profile-image [put]
func (h *UserHandler) ConfirmProfileImage(c *gin.Context) {
	var req ConfirmProfileImageRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.ConfirmProfileImage(c.Request.Context(), principal(c), req.ObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// @Router /users/{userId}/profile-image [get]
func (h *UserHandler) GetProfileImageURL(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	url, err := h.userService.GetProfileImageURL(c.Request.Context(), principal(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}
