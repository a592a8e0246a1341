package configitem

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// ConvertAPIConfigurationItem converts an item returned by
// GetResourceConfigHistory into the shape Config uses in invoking events:
// timestamps become RFC 3339 strings, accountId/arn/MD5 hash/version move to
// their event names, the configuration JSON is parsed, and each
// relationshipName becomes name.
func ConvertAPIConfigurationItem(item configtypes.ConfigurationItem) (*models.ConfigurationItem, error) {
	ci := &models.ConfigurationItem{
		ResourceType:                 string(item.ResourceType),
		ResourceID:                   aws.ToString(item.ResourceId),
		ResourceName:                 aws.ToString(item.ResourceName),
		AWSAccountID:                 aws.ToString(item.AccountId),
		AWSRegion:                    aws.ToString(item.AwsRegion),
		AvailabilityZone:             aws.ToString(item.AvailabilityZone),
		ARN:                          aws.ToString(item.Arn),
		ConfigurationStateMd5Hash:    aws.ToString(item.ConfigurationItemMD5Hash),
		ConfigurationItemVersion:     aws.ToString(item.Version),
		ConfigurationItemCaptureTime: formatTime(item.ConfigurationItemCaptureTime),
		ConfigurationItemStatus:      string(item.ConfigurationItemStatus),
		ConfigurationStateID:         json.Number(aws.ToString(item.ConfigurationStateId)),
		ResourceCreationTime:         formatTime(item.ResourceCreationTime),
		Tags:                         item.Tags,
		RelatedEvents:                item.RelatedEvents,
	}

	if raw := strings.TrimSpace(aws.ToString(item.Configuration)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ci.Configuration); err != nil {
			return nil, fmt.Errorf("parse configuration of %s %s: %w", ci.ResourceType, ci.ResourceID, err)
		}
	}

	if len(item.SupplementaryConfiguration) > 0 {
		ci.SupplementaryConfiguration = make(map[string]any, len(item.SupplementaryConfiguration))
		for k, v := range item.SupplementaryConfiguration {
			ci.SupplementaryConfiguration[k] = v
		}
	}

	for _, rel := range item.Relationships {
		ci.Relationships = append(ci.Relationships, models.Relationship{
			ResourceType: string(rel.ResourceType),
			ResourceID:   aws.ToString(rel.ResourceId),
			ResourceName: aws.ToString(rel.ResourceName),
			Name:         aws.ToString(rel.RelationshipName),
		})
	}

	return ci, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
