package engine

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/dukex/weatherflow/pkg/models"
)

const (
	topicPrefix = "weatherflow.node."
	topicSuffix = ".input"

	metadataSourceNode = "source_node"
	metadataTargetNode = "target_node"
	metadataMessageID  = "msg_id"
)

// InputTopic is the bus topic a node receives its input on.
func InputTopic(nodeID string) string {
	return topicPrefix + nodeID + topicSuffix
}

func encodeMessage(msg *models.Message, source, target string) (*message.Message, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message %s: %w", msg.ID, err)
	}

	wm := message.NewMessage(watermill.NewULID(), payload)
	wm.Metadata.Set(metadataMessageID, msg.ID)
	wm.Metadata.Set(metadataTargetNode, target)

	if source != "" {
		wm.Metadata.Set(metadataSourceNode, source)
	}

	return wm, nil
}

// decodeMessage gives every consumer its own copy; numbers come back as float64.
func decodeMessage(wm *message.Message) (*models.Message, error) {
	msg := &models.Message{}
	if err := json.Unmarshal(wm.Payload, msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", wm.UUID, err)
	}

	return msg, nil
}
