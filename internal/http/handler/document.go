package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"filenet/internal/http/middleware"
	"filenet/internal/model"
	"filenet/internal/service"
)

// principalFromCtx returns the authenticated user stored by middleware.Auth.
func principalFromCtx(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(middleware.PrincipalLocalKey).(*model.User)
	return u, ok && u != nil
}

// SearchFiles handles GET /files/search.
//
// @Summary Search documents by filename or metadata
// @Param query query string false "case-insensitive search term"
// @Success 200 {array} model.DocumentSummary
// @Router /files/search [get]
func SearchFiles(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		results, err := docSvc.Search(c.UserContext(), principal.ID, c.Query("query"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"results": results})
	}
}

// RetrieveFile handles GET /files/:id, streaming the selected version.
//
// @Summary Download document content
// @Param id path string true "document id"
// @Param version query string false "version id (defaults to current)"
// @Success 200 {file} binary
// @Router /files/{id} [get]
func RetrieveFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := docSvc.Retrieve(c.UserContext(), id, principal.ID, c.Query("version"))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.Document.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+res.Document.Filename+`"`)
		// SendStream hands the body to fasthttp, which closes it after the
		// response is written; content is never buffered wholesale.
		return c.SendStream(res.Body, int(res.Version.Size))
	}
}

// RetrieveFileWithMetadata handles GET /files/:id/with-metadata.
//
// @Summary Retrieve document attributes, metadata, and version summary
// @Param id path string true "document id"
// @Param version query string false "version id (defaults to current)"
// @Success 200 {object} service.DocumentWithMetadata
// @Router /files/{id}/with-metadata [get]
func RetrieveFileWithMetadata(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := docSvc.RetrieveWithMetadata(c.UserContext(), id, principal.ID, c.Query("version"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadFile handles POST /files (multipart/form-data: file, optional metadata JSON).
//
// @Summary Upload a new document
// @Accept multipart/form-data
// @Success 201 {object} model.Document
// @Router /files [post]
func UploadFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		metadata, err := parseMetadataForm(c.FormValue("metadata"))
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", "metadata must be a JSON object of string values")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), principal.ID, f, fh.Filename, ct, fh.Size, metadata)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// UpdateFile handles PUT /files/:id (multipart: optional file, optional metadata JSON).
//
// @Summary Update document content and/or metadata
// @Accept multipart/form-data
// @Param id path string true "document id"
// @Success 200 {object} service.UpdateResult
// @Router /files/{id} [put]
func UpdateFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		metadata, err := parseMetadataForm(c.FormValue("metadata"))
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", "metadata must be a JSON object of string values")
		}

		req := service.UpdateRequest{Metadata: metadata}
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			req.Content = f
			req.ContentType = ct
			req.Size = fh.Size
		}

		res, err := docSvc.Update(c.UserContext(), id, principal.ID, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DeleteFile handles DELETE /files/:id.
//
// @Summary Delete a document with all versions, grants, and metadata
// @Param id path string true "document id"
// @Success 204
// @Router /files/{id} [delete]
func DeleteFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id, principal.ID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListFileVersions handles GET /files/:id/versions.
//
// @Summary List document versions in creation order
// @Param id path string true "document id"
// @Success 200 {array} model.Version
// @Router /files/{id}/versions [get]
func ListFileVersions(verSvc service.VersionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		versions, err := verSvc.ListVersions(c.UserContext(), id, principal.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"versions": versions})
	}
}

// parseMetadataForm decodes the optional metadata form field. An empty
// field means no metadata change.
func parseMetadataForm(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
