package model

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

// artifactObjects are the files a trained model release consists of.
var artifactObjects = []string{modelFileName, metadataFileName}

// FetchArtifacts downloads the model artifacts from object storage into
// cfg.ModelDir when the artifact source is minio. With a local source it only
// verifies the files are present.
func FetchArtifacts(ctx context.Context, modelCfg config.ModelConfig, minioCfg config.MinIOConfig, log logging.Logger) error {
	switch modelCfg.ArtifactSource {
	case "local":
		return verifyLocalArtifacts(modelCfg.ModelDir)
	case "minio":
		return fetchFromMinIO(ctx, modelCfg, minioCfg, log)
	default:
		return errors.New(errors.ErrCodeArtifactFetchFail, "unknown artifact source").
			WithDetail("source=" + modelCfg.ArtifactSource)
	}
}

func verifyLocalArtifacts(modelDir string) error {
	for _, name := range artifactObjects {
		path := filepath.Join(modelDir, name)
		if _, err := os.Stat(path); err != nil {
			return errors.New(errors.ErrCodeArtifactFetchFail, "model artifact missing").
				WithDetail("path=" + path).WithCause(err)
		}
	}
	return nil
}

func fetchFromMinIO(ctx context.Context, modelCfg config.ModelConfig, minioCfg config.MinIOConfig, log logging.Logger) error {
	client, err := minio.New(minioCfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioCfg.AccessKey, minioCfg.SecretKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		return errors.New(errors.ErrCodeArtifactFetchFail, "failed to create object storage client").
			WithCause(err)
	}

	if err := os.MkdirAll(modelCfg.ModelDir, 0o755); err != nil {
		return errors.New(errors.ErrCodeArtifactFetchFail, "failed to create model directory").
			WithDetail("dir=" + modelCfg.ModelDir).WithCause(err)
	}

	for _, name := range artifactObjects {
		localPath := filepath.Join(modelCfg.ModelDir, name)
		start := time.Now()
		if err := client.FGetObject(ctx, minioCfg.Bucket, name, localPath, minio.GetObjectOptions{}); err != nil {
			return errors.New(errors.ErrCodeArtifactFetchFail, "failed to download model artifact").
				WithDetail("bucket=" + minioCfg.Bucket + " object=" + name).WithCause(err)
		}
		log.Info("downloaded model artifact",
			logging.String("object", name),
			logging.String("bucket", minioCfg.Bucket),
			logging.Duration("took", time.Since(start)),
		)
	}
	return nil
}
