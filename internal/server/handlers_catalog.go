package server

import (
	"net/http"

	"github.com/aimerfeng/SkillSwap/internal/catalog"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/offering"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/gin-gonic/gin"
)

// handleRegisterParticipant provisions a participant in the directory
func (s *APIServer) handleRegisterParticipant(c *gin.Context) {
	var req participant.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := s.participants.Register(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, "register_participant", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *APIServer) handleGetParticipant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := s.participants.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "get_participant", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleGetReputation returns rating averages and the completed count
func (s *APIServer) handleGetReputation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := s.reputation.Summary(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "reputation_summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *APIServer) handleListSkills(c *gin.Context) {
	var (
		skills []models.Skill
		err    error
	)
	if category := c.Query("category"); category != "" {
		skills, err = s.catalog.ListByCategory(c.Request.Context(), category)
	} else {
		skills, err = s.catalog.ListActive(c.Request.Context())
	}
	if err != nil {
		respondDomainError(c, "list_skills", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

func (s *APIServer) handleSearchSkills(c *gin.Context) {
	skills, err := s.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondDomainError(c, "search_skills", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

func (s *APIServer) handleListCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondDomainError(c, "list_categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// handlePopularSkills ranks active skills by number of OFFER offerings
func (s *APIServer) handlePopularSkills(c *gin.Context) {
	popular, err := s.offerings.PopularSkills(c.Request.Context(), queryLimit(c, offering.DefaultPopularLimit))
	if err != nil {
		respondDomainError(c, "popular_skills", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": popular})
}

func (s *APIServer) handleGetSkill(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	skill, err := s.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "get_skill", err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

func (s *APIServer) handleRegisterSkill(c *gin.Context) {
	var req catalog.RegisterSkillRequest
	if !bindJSON(c, &req) {
		return
	}

	skill, err := s.catalog.Register(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, "register_skill", err)
		return
	}
	c.JSON(http.StatusCreated, skill)
}

func (s *APIServer) handleUpdateSkill(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateSkillRequest
	if !bindJSON(c, &req) {
		return
	}

	skill, err := s.catalog.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondDomainError(c, "update_skill", err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

func (s *APIServer) handleDeactivateSkill(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	skill, err := s.catalog.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "deactivate_skill", err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

func (s *APIServer) handleReactivateSkill(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	skill, err := s.catalog.Reactivate(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, "reactivate_skill", err)
		return
	}
	c.JSON(http.StatusOK, skill)
}
