package postgres

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge/internal/domain"
)

func marshalSkills(skills []domain.Skill) string {
	if len(skills) == 0 {
		return "[]"
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalSkills(raw string) []domain.Skill {
	var skills []domain.Skill
	if raw != "" && raw != "[]" {
		_ = json.Unmarshal([]byte(raw), &skills)
	}
	return skills
}

func marshalIDs(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalIDs(raw string) []uuid.UUID {
	var ids []uuid.UUID
	if raw != "" && raw != "[]" {
		_ = json.Unmarshal([]byte(raw), &ids)
	}
	return ids
}

func toProfileModel(p *domain.Profile) ProfileModel {
	return ProfileModel{
		ID:              p.ID,
		Name:            p.Name,
		Country:         p.Country,
		Role:            p.Role,
		BusinessUnit:    p.BusinessUnit,
		Description:     p.Description,
		Interests:       p.Interests,
		Photo:           p.Photo,
		Skills:          marshalSkills(p.Skills),
		TotalChallenges: p.TotalChallenges,
		AverageRating:   p.AverageRating,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toProfileDomain(m *ProfileModel) *domain.Profile {
	return &domain.Profile{
		ID:              m.ID,
		Name:            m.Name,
		Country:         m.Country,
		Role:            m.Role,
		BusinessUnit:    m.BusinessUnit,
		Description:     m.Description,
		Interests:       m.Interests,
		Photo:           m.Photo,
		Skills:          unmarshalSkills(m.Skills),
		TotalChallenges: m.TotalChallenges,
		AverageRating:   m.AverageRating,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toChallengeModel(c *domain.Challenge) ChallengeModel {
	return ChallengeModel{
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		Type:              string(c.Type),
		Status:            string(c.Status),
		CreatedBy:         c.CreatedBy,
		SuggestedProfiles: marshalIDs(c.SuggestedProfiles),
		Participants:      marshalIDs(c.Participants),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func toChallengeDomain(m *ChallengeModel) *domain.Challenge {
	return &domain.Challenge{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description,
		Type:              domain.ChallengeType(m.Type),
		Status:            domain.ChallengeStatus(m.Status),
		CreatedBy:         m.CreatedBy,
		SuggestedProfiles: unmarshalIDs(m.SuggestedProfiles),
		Participants:      unmarshalIDs(m.Participants),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toMessageModel(m *domain.Message) MessageModel {
	return MessageModel{
		ID:              m.ID,
		ChallengeID:     m.ChallengeID,
		SenderProfileID: m.SenderProfileID,
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

func toMessageDomain(m *MessageModel) *domain.Message {
	return &domain.Message{
		ID:              m.ID,
		ChallengeID:     m.ChallengeID,
		SenderProfileID: m.SenderProfileID,
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

func toRatingModel(r *domain.ChallengeRating) ChallengeRatingModel {
	return ChallengeRatingModel{
		ID:          r.ID,
		ChallengeID: r.ChallengeID,
		ProfileID:   r.ProfileID,
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt,
	}
}

func toRatingDomain(m *ChallengeRatingModel) *domain.ChallengeRating {
	return &domain.ChallengeRating{
		ID:          m.ID,
		ChallengeID: m.ChallengeID,
		ProfileID:   m.ProfileID,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
	}
}
