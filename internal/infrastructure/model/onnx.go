package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/domain/chem"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

const (
	modelFileName    = "model.onnx"
	metadataFileName = "metadata.json"
)

var ortInitOnce sync.Once

// Metadata is the sidecar describing a trained model: which catalog tasks its
// output columns map to and how its input features were standardised.
type Metadata struct {
	Tasks        []string  `json:"tasks"`
	FeatureMeans []float64 `json:"feature_means"`
	FeatureStds  []float64 `json:"feature_stds"`
	InputName    string    `json:"input_name"`
	OutputName   string    `json:"output_name"`
}

func (m *Metadata) validate() error {
	if len(m.Tasks) == 0 {
		return errors.New(errors.ErrCodeModelMetadataBad, "model metadata lists no tasks")
	}
	for _, task := range m.Tasks {
		if _, ok := admet.PropertyByID(task); !ok {
			return errors.New(errors.ErrCodeModelMetadataBad, "model metadata names unknown task").
				WithDetail("task=" + task)
		}
	}
	if len(m.FeatureMeans) != len(featureNames) || len(m.FeatureStds) != len(featureNames) {
		return errors.New(errors.ErrCodeModelMetadataBad, "model metadata feature scaling length mismatch").
			WithDetail(fmt.Sprintf("means=%d stds=%d want=%d",
				len(m.FeatureMeans), len(m.FeatureStds), len(featureNames)))
	}
	if m.InputName == "" || m.OutputName == "" {
		return errors.New(errors.ErrCodeModelMetadataBad, "model metadata missing tensor names")
	}
	return nil
}

// ONNXPredictor runs a multitask regression/classification model through
// onnxruntime. The model takes a [batch, features] float32 tensor and returns
// [batch, tasks]; classification task outputs are already sigmoid-activated
// in the exported graph.
type ONNXPredictor struct {
	session      *ort.DynamicAdvancedSession
	meta         Metadata
	maxBatchSize int
	logger       logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewONNXPredictor loads model.onnx and metadata.json from cfg.ModelDir.
func NewONNXPredictor(cfg config.ModelConfig, log logging.Logger) (*ONNXPredictor, error) {
	meta, err := loadMetadata(filepath.Join(cfg.ModelDir, metadataFileName))
	if err != nil {
		return nil, err
	}

	if cfg.ONNXLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.ONNXLibraryPath)
	}
	var initErr error
	ortInitOnce.Do(func() {
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "failed to initialize onnxruntime").
			WithCause(initErr)
	}

	modelPath := filepath.Join(cfg.ModelDir, modelFileName)
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "failed to load onnx model").
			WithDetail("path="+modelPath).WithCause(err)
	}

	log.Info("onnx model loaded",
		logging.String("path", modelPath),
		logging.Int("tasks", len(meta.Tasks)),
	)

	return &ONNXPredictor{
		session:      session,
		meta:         *meta,
		maxBatchSize: cfg.MaxBatchSize,
		logger:       log,
	}, nil
}

func loadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "failed to read model metadata").
			WithDetail("path=" + path).WithCause(err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.New(errors.ErrCodeModelMetadataBad, "failed to decode model metadata").
			WithDetail("path=" + path).WithCause(err)
	}
	if err := meta.validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (p *ONNXPredictor) Name() string { return "onnx" }

func (p *ONNXPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.session.Destroy()
}

func (p *ONNXPredictor) Predict(ctx context.Context, smiles []string) (*admet.Table, error) {
	mols, err := parseBatch(smiles)
	if err != nil {
		return nil, err
	}

	table := admet.NewTable()
	chunk := p.maxBatchSize
	if chunk <= 0 {
		chunk = len(smiles)
	}
	for start := 0; start < len(smiles); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + chunk
		if end > len(smiles) {
			end = len(smiles)
		}
		if err := p.runChunk(smiles[start:end], mols[start:end], table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// runChunk performs one onnxruntime invocation and appends its rows.
func (p *ONNXPredictor) runChunk(smiles []string, mols []*chem.Mol, table *admet.Table) error {
	batch := len(mols)
	nTasks := len(p.meta.Tasks)

	features := make([]float32, 0, batch*len(featureNames))
	for _, m := range mols {
		raw := featurize(m)
		for j, v := range raw {
			std := p.meta.FeatureStds[j]
			if std == 0 {
				std = 1
			}
			features = append(features, float32((v-p.meta.FeatureMeans[j])/std))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(int64(batch), int64(len(featureNames))), features)
	if err != nil {
		return errors.New(errors.ErrCodeInferenceFailed, "failed to build input tensor").WithCause(err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), int64(nTasks)))
	if err != nil {
		return errors.New(errors.ErrCodeInferenceFailed, "failed to build output tensor").WithCause(err)
	}
	defer output.Destroy()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New(errors.ErrCodeModelNotLoaded, "onnx predictor is closed")
	}
	err = p.session.Run([]ort.Value{input}, []ort.Value{output})
	p.mu.Unlock()
	if err != nil {
		return errors.New(errors.ErrCodeInferenceFailed, "onnx inference failed").WithCause(err)
	}

	scores := output.GetData()
	for i, s := range smiles {
		values := make(map[string]float64, nTasks)
		for j, task := range p.meta.Tasks {
			values[task] = float64(scores[i*nTasks+j])
		}
		table.Append(s, values)
	}
	return nil
}
