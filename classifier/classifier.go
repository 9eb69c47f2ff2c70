// Package classifier runs the brain-MRI disease model. The TFLite export
// takes a 224x224 RGB tensor and yields one score per disease class.
package classifier

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tphakala/go-tflite"
)

// Labels the model predicts, in output-tensor order.
var Labels = []string{"glioma", "meningioma", "notumor", "pituitary"}

// Prediction is a successful classification outcome.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Predictor maps a stored image to a disease class. Implementations must
// be safe for concurrent use; callers never retry a failed prediction.
type Predictor interface {
	Predict(ctx context.Context, imagePath string) (Prediction, error)
}

// Classifier wraps a TFLite interpreter over the exported model.
type Classifier struct {
	// The interpreter is not safe for concurrent invocation, so
	// predictions are serialized.
	mu          sync.Mutex
	interpreter *tflite.Interpreter
	model       *tflite.Model
}

// New loads the model from the given path and prepares an interpreter.
func New(modelPath string) (*Classifier, error) {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("cannot load model from path: %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(runtime.NumCPU())
	options.SetErrorReporter(func(msg string, userData interface{}) {
		log.WithField("component", "tflite").Error(msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter")
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed")
	}

	return &Classifier{interpreter: interpreter, model: model}, nil
}

// Predict classifies the image at the given path. The context bounds the
// wait: inference runs on its own goroutine and a context expiry returns
// early with the context's error. One attempt only.
func (c *Classifier) Predict(ctx context.Context, imagePath string) (Prediction, error) {
	input, err := preprocess(imagePath)
	if err != nil {
		return Prediction{}, fmt.Errorf("preprocess image: %w", err)
	}

	type outcome struct {
		pred Prediction
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		pred, err := c.invoke(input)
		done <- outcome{pred: pred, err: err}
	}()

	select {
	case <-ctx.Done():
		return Prediction{}, fmt.Errorf("classification: %w", ctx.Err())
	case out := <-done:
		return out.pred, out.err
	}
}

func (c *Classifier) invoke(input []float32) (Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tensor := c.interpreter.GetInputTensor(0)
	if tensor == nil {
		return Prediction{}, fmt.Errorf("cannot get input tensor")
	}
	if copied := copy(tensor.Float32s(), input); copied != len(input) {
		return Prediction{}, fmt.Errorf("input tensor size mismatch: copied %d of %d", copied, len(input))
	}

	if status := c.interpreter.Invoke(); status != tflite.OK {
		return Prediction{}, fmt.Errorf("inference failed")
	}

	scores := c.interpreter.GetOutputTensor(0).Float32s()
	return scoresToPrediction(scores, Labels)
}

// Close releases the interpreter and model.
func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
}

// scoresToPrediction applies softmax and picks the top class.
func scoresToPrediction(scores []float32, labels []string) (Prediction, error) {
	if len(scores) != len(labels) {
		return Prediction{}, fmt.Errorf("length of labels (%d) and predictions (%d) do not match", len(labels), len(scores))
	}

	probs := softmax(scores)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	return Prediction{Label: labels[best], Confidence: probs[best]}, nil
}

func softmax(scores []float32) []float32 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	var sum float64
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(float64(s - max))
		sum += exps[i]
	}

	probs := make([]float32, len(scores))
	for i := range exps {
		probs[i] = float32(exps[i] / sum)
	}
	return probs
}
