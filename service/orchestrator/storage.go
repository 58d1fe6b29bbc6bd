package orchestrator

import (
	"context"
	"time"

	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/storage"
)

func (s *service) persistReleaseIfEnabled(ctx context.Context, result model.ReleaseResult, duration time.Duration) error {
	if s.storageService == nil {
		return nil
	}
	if result.CommitID == "" {
		// Nothing identifies a release that failed before its commit ID was known.
		s.logger.Debug().Msg("release has no commit id, not recording history")
		return nil
	}

	id, err := s.storageService.SaveRelease(context.WithoutCancel(ctx), storage.SaveReleaseInput{
		ReleaseUUID:  result.ReleaseUUID,
		CommitID:     result.CommitID,
		Image:        result.Image,
		LocalRef:     result.LocalRef,
		RemoteRef:    result.RemoteRef,
		ExtraRefs:    result.ExtraRefs,
		Registry:     result.Registry,
		Status:       result.Status,
		FailedStep:   result.FailedStep,
		ErrorMessage: result.Error,
		DryRun:       result.DryRun,
		Duration:     duration,
		ManifestURI:  result.ManifestURI,
		Version:      result.CLIVersion,
		StartedAt:    result.StartedAt,
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("release_id", id).Msg("release recorded")
	return nil
}
