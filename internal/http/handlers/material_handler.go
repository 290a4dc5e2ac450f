package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/blob"
	"ministry_hub/internal/ids"
	"ministry_hub/internal/models"
)

// MaxMaterialSize bounds a single upload.
const MaxMaterialSize = 25 << 20

func ListMaterials(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []models.Material
		if err := db.WithContext(c.Request.Context()).
			Where("event_id = ?", loaded[models.Event](c).ID).
			Order("created_at").
			Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"materials": out})
	}
}

// UploadMaterial stores the "file" form field in the blob store and records it.
func UploadMaterial(db *gorm.DB, store blob.Store, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxMaterialSize+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fh.Size > MaxMaterialSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		p := principal(c)
		ev := loaded[models.Event](c)
		key := "events/" + ev.ID + "/" + ids.New() + filepath.Ext(fh.Filename)
		size, err := store.Put(c.Request.Context(), key, f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		name := c.PostForm("name")
		if name == "" {
			name = fh.Filename
		}
		m := models.Material{
			EventID:      ev.ID,
			Name:         name,
			FileName:     filepath.Base(fh.Filename),
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         size,
			StorageKey:   key,
			UploadedByID: p.User.ID,
		}
		if err := db.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
			_ = store.Delete(c.Request.Context(), key)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.material.upload",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"material_id": m.ID, "file": m.FileName},
		})
		c.JSON(http.StatusCreated, gin.H{"material": m})
	}
}

func findMaterial(c *gin.Context, db *gorm.DB) (*models.Material, bool) {
	var m models.Material
	err := db.WithContext(c.Request.Context()).
		First(&m, "id = ? AND event_id = ?", c.Param("materialId"), loaded[models.Event](c).ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return &m, true
}

func DownloadMaterial(db *gorm.DB, store blob.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := findMaterial(c, db)
		if !ok {
			return
		}
		rc, err := store.Open(c.Request.Context(), m.StorageKey)
		if errors.Is(err, blob.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file missing"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rc.Close()

		contentType := m.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(m.FileName))
		c.DataFromReader(http.StatusOK, m.Size, contentType, rc, nil)
	}
}

func DeleteMaterial(db *gorm.DB, store blob.Store, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := findMaterial(c, db)
		if !ok {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := store.Delete(c.Request.Context(), m.StorageKey); err != nil {
			c.Error(err)
		}
		ev := loaded[models.Event](c)
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.material.delete",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"material_id": m.ID},
		})
		c.Status(http.StatusNoContent)
	}
}
