package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/marketplace/backend/internal/application/identity"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// uploadField is the multipart field carrying an image
const uploadField = "file"

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService *identityapp.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *identityapp.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMe godoc
// @ID           getMyProfile
// @Summary      Get my profile
// @Tags         profiles
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.ProfileResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profiles/me [get]
func (h *ProfileHandler) GetMe(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateMe godoc
// @ID           updateMyProfile
// @Summary      Update my profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateProfileRequest true "Profile"
// @Success      200 {object} APIResponse[identityapp.ProfileResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profiles/me [put]
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req identityapp.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	profile, err := h.profileService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GetPublic godoc
// @ID           getPublicProfile
// @Summary      Get public profile
// @Description  Get the public view of another user's profile
// @Tags         profiles
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.PublicProfile]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	profile, err := h.profileService.GetPublicProfile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UploadAvatar godoc
// @ID           uploadAvatar
// @Summary      Upload avatar
// @Tags         profiles
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image (JPEG, PNG, GIF or WebP)"
// @Success      200 {object} APIResponse[identityapp.UploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profiles/me/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	h.upload(c, h.profileService.UploadAvatar)
}

// UploadShopLogo godoc
// @ID           uploadShopLogo
// @Summary      Upload shop logo
// @Description  Providers and sellers only
// @Tags         profiles
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image (JPEG, PNG, GIF or WebP)"
// @Success      200 {object} APIResponse[identityapp.UploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profiles/me/logo [post]
func (h *ProfileHandler) UploadShopLogo(c *gin.Context) {
	h.upload(c, h.profileService.UploadShopLogo)
}

type uploadFunc func(ctx context.Context, req identityapp.UploadImageRequest, body io.Reader) (*identityapp.UploadResponse, error)

func (h *ProfileHandler) upload(c *gin.Context, fn uploadFunc) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{{
			Field:   uploadField,
			Message: "An image file is required",
			Tag:     "required",
		}})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	contentType, err := sniffContentType(header, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out, err := fn(c.Request.Context(), identityapp.UploadImageRequest{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// sniffContentType trusts the part header when present and falls back to
// content detection, rewinding the file afterwards.
func sniffContentType(header *multipart.FileHeader, file multipart.File) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
