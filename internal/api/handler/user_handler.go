package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/martijn/usersapi/internal/api/dto"
	"github.com/martijn/usersapi/internal/core/domain"
	"github.com/martijn/usersapi/internal/core/service"
)

var errTrailingData = errors.New("unexpected data after JSON body")

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles GET /users
//
//	@Summary	List all users
//	@Tags		users
//	@Produce	json
//	@Success	200	{array}		dto.UserResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError, "Error fetching users")
		return
	}

	response := make([]dto.UserResponse, len(users))
	for i, user := range users {
		response[i] = dto.ToUserResponse(user)
	}

	c.JSON(http.StatusOK, response)
}

// GetUser handles GET /users/:id
//
//	@Summary	Get a user by id
//	@Tags		users
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	dto.UserResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError, "Error fetching user")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// CreateUser handles POST /users
//
//	@Summary	Create a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		user	body		dto.CreateUserRequest	true	"New user"
//	@Success	201		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	500		{object}	dto.ErrorResponse
//	@Router		/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Message: "All fields are required",
				Error:   describeValidation(verrs),
			})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), service.NewUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Hobby:     req.Hobby,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError, "Error saving user")
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// UpdateUser handles PUT /users/:id
//
//	@Summary	Partially update a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"User ID"
//	@Param		user	body		dto.UpdateUserRequest	true	"Fields to change"
//	@Success	200		{object}	dto.UserMessageResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Message: "Error updating user",
			Error:   err.Error(),
		})
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), req.ToPatch())
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError, "Error updating user")
		return
	}

	c.JSON(http.StatusOK, dto.UserMessageResponse{
		Message: "User updated successfully",
		User:    dto.ToUserResponse(user),
	})
}

// DeleteUser handles DELETE /users/:id
//
//	@Summary	Delete a user
//	@Tags		users
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	dto.UserMessageResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, err := h.userService.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, http.StatusInternalServerError, "Error deleting user")
		return
	}

	c.JSON(http.StatusOK, dto.UserMessageResponse{
		Message: "User deleted successfully",
		User:    dto.ToUserResponse(user),
	})
}

// fail maps a service error onto a status and body. Errors outside the
// domain taxonomy get fallbackStatus with message.
func (h *UserHandler) fail(c *gin.Context, err error, fallbackStatus int, message string) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
	case errors.Is(err, domain.ErrEmailExists):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Email already exists"})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: message, Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, dto.ErrorResponse{Message: "Request timed out"})
	default:
		c.JSON(fallbackStatus, dto.ErrorResponse{Message: message, Error: err.Error()})
	}
}

// bindStrictJSON decodes the body rejecting unknown fields and trailing data,
// then runs the binding validator over the result. An empty body decodes as {}.
func bindStrictJSON(c *gin.Context, obj any) error {
	if c.Request.Body != nil {
		dec := json.NewDecoder(c.Request.Body)
		dec.DisallowUnknownFields()
		err := dec.Decode(obj)
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			return err
		default:
			if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
				return errTrailingData
			}
		}
	}

	return binding.Validator.ValidateStruct(obj)
}

// describeValidation lists the fields that failed validation
func describeValidation(verrs validator.ValidationErrors) string {
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += ", "
		}
		switch fe.Tag() {
		case "required":
			msg += fmt.Sprintf("field %s is required", fe.Field())
		default:
			msg += fmt.Sprintf("field %s is invalid", fe.Field())
		}
	}
	return msg
}
