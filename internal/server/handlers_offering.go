package server

import (
	"net/http"

	apierrors "github.com/aimerfeng/SkillSwap/internal/errors"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/offering"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// polarityQuery reads ?polarity=; required reports whether an absent value is an error
func polarityQuery(c *gin.Context, required bool) (*models.Polarity, bool) {
	raw := c.Query("polarity")
	if raw == "" {
		if required {
			respondError(c, apierrors.NewValidationError("polarity is required"))
			return nil, false
		}
		return nil, true
	}
	p, err := models.ParsePolarity(raw)
	if err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return nil, false
	}
	return &p, true
}

func (s *APIServer) handleRegisterOffering(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	var req offering.RegisterOfferingRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := s.offerings.Register(c.Request.Context(), participantID, &req)
	if err != nil {
		respondDomainError(c, "register_offering", err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *APIServer) handleMyOfferings(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	s.respondParticipantOfferings(c, participantID)
}

func (s *APIServer) handleParticipantOfferings(c *gin.Context) {
	participantID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	s.respondParticipantOfferings(c, participantID)
}

func (s *APIServer) respondParticipantOfferings(c *gin.Context, participantID uuid.UUID) {
	polarity, ok := polarityQuery(c, false)
	if !ok {
		return
	}

	offerings, err := s.offerings.FindByParticipant(c.Request.Context(), participantID, polarity)
	if err != nil {
		respondDomainError(c, "participant_offerings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings})
}

// handleAvailableOfferings lists available offerings of one skill, OFFER by default
func (s *APIServer) handleAvailableOfferings(c *gin.Context) {
	skillID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	polarity, ok := polarityQuery(c, false)
	if !ok {
		return
	}
	if polarity == nil {
		offer := models.PolarityOffer
		polarity = &offer
	}

	offerings, err := s.offerings.FindAvailable(c.Request.Context(), skillID, *polarity)
	if err != nil {
		respondDomainError(c, "available_offerings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings})
}

func (s *APIServer) handleCountProviders(c *gin.Context) {
	skillID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	count, err := s.offerings.CountProviders(c.Request.Context(), skillID)
	if err != nil {
		respondDomainError(c, "count_providers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skill_id": skillID, "providers": count})
}

func (s *APIServer) handleOfferingsByCategory(c *gin.Context) {
	polarity, ok := polarityQuery(c, true)
	if !ok {
		return
	}

	offerings, err := s.offerings.FindByCategoryAndPolarity(c.Request.Context(), c.Param("category"), *polarity)
	if err != nil {
		respondDomainError(c, "offerings_by_category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings})
}

func (s *APIServer) handleSearchOfferings(c *gin.Context) {
	polarity, ok := polarityQuery(c, true)
	if !ok {
		return
	}

	offerings, err := s.offerings.SearchByTextAndPolarity(c.Request.Context(), c.Query("q"), *polarity)
	if err != nil {
		respondDomainError(c, "search_offerings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings})
}

func (s *APIServer) handleGetOffering(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	o, err := s.offerings.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "get_offering", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *APIServer) handleUpdateOffering(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req offering.UpdateOfferingRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := s.offerings.Update(c.Request.Context(), id, participantID, &req)
	if err != nil {
		respondDomainError(c, "update_offering", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *APIServer) handleDeleteOffering(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := s.offerings.Remove(c.Request.Context(), id, participantID); err != nil {
		respondDomainError(c, "delete_offering", err)
		return
	}
	c.Status(http.StatusNoContent)
}
