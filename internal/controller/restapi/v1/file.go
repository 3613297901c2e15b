package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/controller/restapi/v1/response"
	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/pkg/types/errs"
)

// @Summary  	Upload file
// @Description Validates the file, drives it through signing and the presigned PUT, creates the durable record and optionally waits for thumbnails
// @Tags 		files
// @Accept 		mpfd
// @Produce 	json
// @Param 		file 				formData file 	true  "File to upload"
// @Param 		entity_type 		formData string true  "Owning entity type"
// @Param 		entity_id 			formData string true  "Owning entity id"
// @Param 		wait_for_thumbnails formData bool 	false "Block until thumbnails are ready"
// @Success 	201 {object} response.File
// @Failure 	400 {object} response.Error "Missing file or parameters"
// @Failure 	404 {object} response.Error "Not found"
// @Failure 	422 {object} response.Error "Validation failed"
// @Failure 	502 {object} response.Error "Upstream step failed"
// @Failure 	504 {object} response.Error "Timed out waiting for a worker"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/files [post]
func (r *V1) uploadFile(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	entityType := ctx.FormValue("entity_type")
	entityID := ctx.FormValue("entity_id")
	if entityType == "" || entityID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "entity_type and entity_id are required")
	}

	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadFile")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadFile")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}

	input := dto.UploadInput{
		FileName:          file.Filename,
		ContentType:       file.Header.Get("Content-Type"),
		Size:              file.Size,
		Data:              data,
		EntityType:        entityType,
		EntityID:          entityID,
		WaitForThumbnails: ctx.FormValue("wait_for_thumbnails") == "true",
		Constraints:       r.constraints,
	}

	rec, err := r.files.Upload(ctx.UserContext(), input)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadFile")

		return uploadErrorResponse(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(fileResponse(rec))
}

// @Summary 	Get file metadata
// @Description Returns the file record including thumbnail keys and status
// @Tags 		files
// @Produce 	json
// @Param 		id path string true "File ID(uuid)"
// @Success 	200 {object} response.File
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "File not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/files/{id} [get]
func (r *V1) getFile(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	rec, err := r.files.GetFile(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "file not found")
		}
		r.logger.Error(err, "restapi - v1 - getFile")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(fileResponse(rec))
}

// @Summary 	Download thumbnail
// @Description Downloads one rendition of the file from the object store
// @Tags 		files
// @Produce 	image/jpeg
// @Param 		id 	 path string true "File ID(uuid)"
// @Param 		size path string true "Rendition size" Enums(small, medium, large)
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID or size"
// @Failure 	404 {object} response.Error "File or rendition not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/files/{id}/thumbnails/{size} [get]
func (r *V1) getThumbnail(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	size := entity.ThumbSize(ctx.Params("size"))
	switch size {
	case entity.ThumbSmall, entity.ThumbMedium, entity.ThumbLarge:
	default:
		return errorResponse(ctx, http.StatusBadRequest, "invalid size. Allowed: small, medium, large")
	}

	data, err := r.files.DownloadThumbnail(ctx.UserContext(), id, size)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "thumbnail not found")
		}
		r.logger.Error(err, "restapi - v1 - getThumbnail")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	ctx.Set(fiber.HeaderContentType, "image/jpeg")

	return ctx.Send(data)
}

// @Summary 	Delete file
// @Description Deletes the record, the original object and every rendition
// @Tags 		files
// @Param		id 	path	 string true "File ID(uuid)"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "File not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/files/{id} [delete]
func (r *V1) deleteFile(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.files.DeleteFile(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "file not found")
		}
		r.logger.Error(err, "restapi - v1 - deleteFile")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.SendStatus(http.StatusNoContent)
}

func uploadErrorResponse(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrSigningTimeout), errors.Is(err, errs.ErrThumbnailWaitTimeout):
		return errorResponse(ctx, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, errs.ErrSigningFailed), errors.Is(err, errs.ErrUploadTransport), errors.Is(err, errs.ErrThumbnailFailed):
		return errorResponse(ctx, http.StatusBadGateway, err.Error())
	case errors.Is(err, errs.ErrRecordNotFound):
		return errorResponse(ctx, http.StatusNotFound, "file not found")
	default:
		return errorResponse(ctx, http.StatusInternalServerError, "internal problems")
	}
}

func fileResponse(rec *entity.FileRecord) response.File {
	return response.File{
		FileID:          rec.ID.String(),
		EntityType:      rec.EntityType,
		EntityID:        rec.EntityID,
		FileName:        rec.FileName,
		ContentType:     rec.ContentType,
		Size:            rec.Size,
		OriginalKey:     rec.OriginalKey,
		ThumbSmallKey:   rec.ThumbSmallKey,
		ThumbMediumKey:  rec.ThumbMediumKey,
		ThumbLargeKey:   rec.ThumbLargeKey,
		ThumbnailStatus: string(rec.ThumbnailStatus),
		ThumbnailError:  rec.ThumbnailError,
		CreatedAt:       rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
