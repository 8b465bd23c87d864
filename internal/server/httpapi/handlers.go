package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	storage *services.StorageService
	folders *services.FolderService
	shares  *services.ShareService
	quota   *services.QuotaService
	guard   *services.Guard
}

type fileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	FolderID    *string   `json:"folder_id"`
	OwnerKind   string    `json:"owner_kind"`
	OwnerID     string    `json:"owner_id"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description,omitempty"`
	Public      bool      `json:"public"`
	PublicURL   string    `json:"public_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		FolderID:    f.FolderID,
		OwnerKind:   string(f.Owner.Kind),
		OwnerID:     f.Owner.ID,
		Tags:        f.Tags,
		Description: f.Description,
		Public:      f.Public,
		PublicURL:   f.PublicURL,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

type folderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id"`
	OwnerKind string    `json:"owner_kind"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		OwnerKind: string(f.Owner.Kind),
		OwnerID:   f.Owner.ID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// writeError translates service sentinels into HTTP statuses. Unknown errors
// stay opaque 500s; their detail belongs in the log, not the response.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidParent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent folder"})
	case errors.Is(err, common.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "password required"})
	case errors.Is(err, common.ErrInvalidPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid password"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrFolderNotEmpty):
		c.JSON(http.StatusConflict, gin.H{"error": "folder is not empty"})
	case errors.Is(err, common.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the plan's size limit"})
	case errors.Is(err, common.ErrQuotaExceeded):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "storage quota exceeded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ownerFromRequest derives the acting owner: the principal itself, or the
// organization named by org_id when the principal is a member of it. The
// second return is false when the response has already been written.
func (h *handlers) ownerFromRequest(c *gin.Context) (models.Owner, bool) {
	if orgID := c.Query("org_id"); orgID != "" {
		owner := models.OrganizationOwner(orgID)
		if !h.guard.CanActFor(c.Request.Context(), owner, principal(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this organization"})
			return models.Owner{}, false
		}
		return owner, true
	}
	return models.UserOwner(principal(c)), true
}

func optionalID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (h *handlers) uploadFile(c *gin.Context) {
	owner, ok := h.ownerFromRequest(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	body, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file field"})
		return
	}
	defer body.Close()

	file, err := h.storage.Upload(c.Request.Context(), services.UploadInput{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
		Owner:       owner,
		FolderID:    optionalID(c.PostForm("folder_id")),
		Public:      c.PostForm("public") == "true",
		Tags:        c.PostFormArray("tags"),
		Description: c.PostForm("description"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFileResponse(file))
}

func (h *handlers) listFiles(c *gin.Context) {
	owner, ok := h.ownerFromRequest(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, total, err := h.storage.List(c.Request.Context(), services.ListInput{
		Owner:    owner,
		FolderID: optionalID(c.Query("folder_id")),
		Search:   c.Query("search"),
		Tags:     c.QueryArray("tags"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	files := make([]fileResponse, 0, len(items))
	for _, f := range items {
		files = append(files, toFileResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "total": total})
}

// fileForPrincipal loads the file and checks read access. Files the
// principal may not see are reported as absent, not forbidden, so ids cannot
// be probed.
func (h *handlers) fileForPrincipal(c *gin.Context) (*models.File, bool) {
	file, err := h.storage.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !h.guard.CanAccess(c.Request.Context(), file, principal(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return file, true
}

func (h *handlers) getFile(c *gin.Context) {
	file, ok := h.fileForPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toFileResponse(file))
}

func (h *handlers) downloadFile(c *gin.Context) {
	file, ok := h.fileForPrincipal(c)
	if !ok {
		return
	}
	url, err := h.storage.DownloadURL(c.Request.Context(), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type moveFileRequest struct {
	FolderID *string `json:"folder_id"`
}

func (h *handlers) moveFile(c *gin.Context) {
	file, ok := h.fileForPrincipal(c)
	if !ok {
		return
	}

	var req moveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	moved, err := h.storage.Move(c.Request.Context(), file.ID, req.FolderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(moved))
}

func (h *handlers) deleteFile(c *gin.Context) {
	file, ok := h.fileForPrincipal(c)
	if !ok {
		return
	}
	if !h.guard.CanDelete(c.Request.Context(), file, principal(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.storage.Delete(c.Request.Context(), file.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createShareRequest struct {
	ExpiresIn string `json:"expires_in"`
	Password  string `json:"password"`
}

func (h *handlers) createShare(c *gin.Context) {
	file, ok := h.fileForPrincipal(c)
	if !ok {
		return
	}

	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	var ttl time.Duration
	if req.ExpiresIn != "" {
		var err error
		if ttl, err = time.ParseDuration(req.ExpiresIn); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_in"})
			return
		}
	}

	created, err := h.shares.Create(c.Request.Context(), services.CreateShareInput{
		FileID:    file.ID,
		CreatedBy: principal(c),
		ExpiresIn: ttl,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      created.Share.Token,
		"url":        created.URL,
		"expires_at": created.Share.ExpiresAt,
	})
}

// accessShare is the one unauthenticated endpoint: it trades a share token
// (plus password, when the share has one) for file metadata and a download
// URL.
func (h *handlers) accessShare(c *gin.Context) {
	shared, err := h.shares.Access(c.Request.Context(), c.Param("token"), c.Query("password"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": toFileResponse(shared.File), "url": shared.URL})
}

func (h *handlers) getQuota(c *gin.Context) {
	owner, ok := h.ownerFromRequest(c)
	if !ok {
		return
	}
	quota, err := h.quota.GetQuota(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"used":       quota.Used,
		"limit":      quota.Limit,
		"percentage": quota.Percentage,
	})
}

type createFolderRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

func (h *handlers) createFolder(c *gin.Context) {
	owner, ok := h.ownerFromRequest(c)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	folder, err := h.folders.Create(c.Request.Context(), req.Name, owner, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFolderResponse(folder))
}

func (h *handlers) listFolders(c *gin.Context) {
	owner, ok := h.ownerFromRequest(c)
	if !ok {
		return
	}

	items, err := h.folders.List(c.Request.Context(), owner, optionalID(c.Query("parent_id")))
	if err != nil {
		writeError(c, err)
		return
	}
	folders := make([]folderResponse, 0, len(items))
	for _, f := range items {
		folders = append(folders, toFolderResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// folderForPrincipal mirrors fileForPrincipal for folder routes.
func (h *handlers) folderForPrincipal(c *gin.Context) (*models.Folder, bool) {
	folder, err := h.folders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !h.guard.CanActFor(c.Request.Context(), folder.Owner, principal(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return folder, true
}

func (h *handlers) folderBreadcrumb(c *gin.Context) {
	if _, ok := h.folderForPrincipal(c); !ok {
		return
	}
	chain, err := h.folders.Breadcrumb(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	crumbs := make([]folderResponse, 0, len(chain))
	for _, f := range chain {
		crumbs = append(crumbs, toFolderResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"breadcrumb": crumbs})
}

func (h *handlers) deleteFolder(c *gin.Context) {
	folder, ok := h.folderForPrincipal(c)
	if !ok {
		return
	}
	if err := h.folders.Delete(c.Request.Context(), folder.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
