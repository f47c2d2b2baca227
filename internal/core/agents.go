package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// AgentService manages agent records in the structured store.
type AgentService struct {
	store *storage.StructuredStore
	now   func() time.Time
}

// NewAgentService creates an agent service over the given store.
func NewAgentService(store *storage.StructuredStore) *AgentService {
	return &AgentService{store: store, now: time.Now}
}

// GetAllAgents returns a copy of every agent in the store.
func (s *AgentService) GetAllAgents() ([]models.Agent, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	agents := make([]models.Agent, len(doc.Agents))
	copy(agents, doc.Agents)
	return agents, nil
}

// UpsertAgent inserts the agent or replaces the existing record with the
// same ID.
func (s *AgentService) UpsertAgent(agent models.Agent) error {
	if agent.ID == "" {
		return fmt.Errorf("upserting agent: ID must not be empty")
	}
	return s.store.Mutate(func(doc *models.StoreDocument) error {
		if existing := doc.FindAgent(agent.ID); existing != nil {
			*existing = agent
		} else {
			doc.Agents = append(doc.Agents, agent)
		}
		doc.PrependActivity(models.Activity{
			ID:          uuid.NewString(),
			Timestamp:   s.now().UTC(),
			Type:        ActivityAgentUpdated,
			AgentID:     agent.ID,
			Description: fmt.Sprintf("agent %s is %s", agent.Name, agent.Status),
		})
		return nil
	})
}

// SetAgentStatus updates an agent's status and current task pointer.
func (s *AgentService) SetAgentStatus(id string, status models.AgentStatus, currentTaskID string) error {
	return s.store.Mutate(func(doc *models.StoreDocument) error {
		agent := doc.FindAgent(id)
		if agent == nil {
			return fmt.Errorf("updating agent %s: not found", id)
		}
		agent.Status = status
		agent.CurrentTaskID = currentTaskID
		doc.PrependActivity(models.Activity{
			ID:          uuid.NewString(),
			Timestamp:   s.now().UTC(),
			Type:        ActivityAgentUpdated,
			AgentID:     id,
			TaskID:      currentTaskID,
			Description: fmt.Sprintf("agent %s is %s", agent.Name, status),
		})
		return nil
	})
}
