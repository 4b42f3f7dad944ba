package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/http/v1/dto"
)

// CustomFieldHandler exposes the custom-field engine over HTTP. Handlers
// stay thin: scope resolution, parsing, dto mapping; everything else is the
// service's business.
type CustomFieldHandler struct {
	*BaseHandler
	service *customfield.Service
}

// NewCustomFieldHandler creates a new custom field handler.
func NewCustomFieldHandler(base *BaseHandler, service *customfield.Service) *CustomFieldHandler {
	return &CustomFieldHandler{
		BaseHandler: base,
		service:     service,
	}
}

// entityType parses and validates the :entityType route parameter.
func (h *CustomFieldHandler) entityType(c *gin.Context) (customfield.EntityType, bool) {
	et := customfield.EntityType(c.Param("entityType"))
	if !et.IsValid() {
		h.Error(c, apperror.NewValidation("invalid entity type").
			WithDetail("value", c.Param("entityType")))
		return "", false
	}
	return et, true
}

// pathID parses a UUID route parameter.
func (h *CustomFieldHandler) pathID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name).
			WithDetail("value", c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// ListDefinitions handles GET /custom-fields/:entityType
func (h *CustomFieldHandler) ListDefinitions(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}

	activeOnly := c.DefaultQuery("activeOnly", "true") != "false"

	defs, err := h.service.ListDefinitions(c.Request.Context(), h.GetOrganizationID(c), et, activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": defs})
}

// CreateDefinition handles POST /custom-fields/:entityType
func (h *CustomFieldHandler) CreateDefinition(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}

	var req dto.CreateFieldRequest
	if !h.BindJSON(c, &req) {
		return
	}

	params, err := req.ToParams(h.GetOrganizationID(c), et, h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	def, err := h.service.CreateDefinition(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, def)
}

// GetDefinition handles GET /custom-fields/:entityType/fields/:fieldId
func (h *CustomFieldHandler) GetDefinition(c *gin.Context) {
	fieldID, ok := h.pathID(c, "fieldId")
	if !ok {
		return
	}

	def, err := h.service.GetDefinition(c.Request.Context(), fieldID, h.GetOrganizationID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// UpdateDefinition handles PUT /custom-fields/:entityType/fields/:fieldId
func (h *CustomFieldHandler) UpdateDefinition(c *gin.Context) {
	fieldID, ok := h.pathID(c, "fieldId")
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if !h.BindJSON(c, &req) {
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	def, err := h.service.UpdateDefinition(c.Request.Context(), fieldID, h.GetOrganizationID(c), patch, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// DeleteDefinition handles DELETE /custom-fields/:entityType/fields/:fieldId
// Soft delete by default; ?permanent=true irreversibly purges the definition
// and every value referencing it.
func (h *CustomFieldHandler) DeleteDefinition(c *gin.Context) {
	fieldID, ok := h.pathID(c, "fieldId")
	if !ok {
		return
	}
	organizationID := h.GetOrganizationID(c)

	if c.Query("permanent") == "true" {
		if err := h.service.PermanentlyDeleteDefinition(c.Request.Context(), fieldID, organizationID); err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true, "permanent": true})
		return
	}

	deleted, err := h.service.SoftDeleteDefinition(c.Request.Context(), fieldID, organizationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "permanent": false})
}

// GetValues handles GET /custom-fields/:entityType/records/:entityId/values
func (h *CustomFieldHandler) GetValues(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "entityId")
	if !ok {
		return
	}

	values, err := h.service.GetValues(c.Request.Context(), h.GetOrganizationID(c), et, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"values": values})
}

// SetValue handles PUT /custom-fields/:entityType/records/:entityId/values/:fieldId
func (h *CustomFieldHandler) SetValue(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "entityId")
	if !ok {
		return
	}
	fieldID, ok := h.pathID(c, "fieldId")
	if !ok {
		return
	}

	var req dto.SetValueRequest
	if !h.bindNumberPreserving(c, &req) {
		return
	}

	value, err := h.service.SetValue(c.Request.Context(), customfield.SetValueParams{
		OrganizationID:    h.GetOrganizationID(c),
		FieldDefinitionID: fieldID,
		EntityType:        et,
		EntityID:          entityID,
		Value:             req.Value,
		UserID:            h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, value)
}

// SetMultipleValues handles POST /custom-fields/:entityType/records/:entityId/values
// The body is one flat object of fieldName → value; keys with no matching
// active definition are ignored.
func (h *CustomFieldHandler) SetMultipleValues(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "entityId")
	if !ok {
		return
	}

	assignments, err := dto.DecodeFieldAssignments(c.Request.Body)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	written, err := h.service.SetMultipleValues(c.Request.Context(), h.GetOrganizationID(c), et, entityID, assignments, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"values": written})
}

// DeleteValue handles DELETE /custom-field-values/:valueId
func (h *CustomFieldHandler) DeleteValue(c *gin.Context) {
	valueID, ok := h.pathID(c, "valueId")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteValue(c.Request.Context(), valueID, h.GetOrganizationID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if !deleted {
		h.Error(c, apperror.NewNotFound("custom field value", valueID.String()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DeleteEntityValues handles DELETE /custom-fields/:entityType/records/:entityId/values
func (h *CustomFieldHandler) DeleteEntityValues(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "entityId")
	if !ok {
		return
	}

	count, err := h.service.DeleteEntityValues(c.Request.Context(), h.GetOrganizationID(c), et, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

// ListViewProjection handles POST /custom-fields/:entityType/list-view
func (h *CustomFieldHandler) ListViewProjection(c *gin.Context) {
	et, ok := h.entityType(c)
	if !ok {
		return
	}

	var req dto.ListViewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entityIDs := make([]id.ID, 0, len(req.EntityIDs))
	for _, raw := range req.EntityIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid entity id").WithDetail("value", raw))
			return
		}
		entityIDs = append(entityIDs, parsed)
	}

	projection, err := h.service.GetValuesForEntities(c.Request.Context(), h.GetOrganizationID(c), et, entityIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entities": projection})
}

// bindNumberPreserving decodes a JSON body keeping numbers as json.Number,
// so numeric payloads survive validation and storage with full precision.
func (h *CustomFieldHandler) bindNumberPreserving(c *gin.Context, obj any) bool {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}
