package caption

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-captioner/pkg/decoder"
	"github.com/menta2k/image-captioner/pkg/types"
)

type mockVision struct {
	mock.Mock
}

func (m *mockVision) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	args := m.Called(ctx, model, prompt, imgB64)
	return args.String(0), args.Error(1)
}

type failingEncoder struct{}

func (failingEncoder) Encode(image.Image, string, int, int) (string, error) {
	return "", errors.New("encoder exploded")
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 16, 16))
}

func TestCaptionCleansReply(t *testing.T) {
	vision := new(mockVision)
	vision.On("SimpleQuery", mock.Anything, "llava", DefaultPrompt, mock.AnythingOfType("string")).
		Return("Caption: \"a dog running on grass\"\n", nil).Once()

	svc := NewService(vision, decoder.New(), Config{Model: "llava"}, nil)
	got, err := svc.Caption(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, "a dog running on grass", got)
	vision.AssertExpectations(t)
}

func TestCaptionErrorsAreInferenceErrors(t *testing.T) {
	vision := new(mockVision)
	vision.On("SimpleQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused")).Once()

	svc := NewService(vision, decoder.New(), Config{Model: "llava"}, nil)
	_, err := svc.Caption(context.Background(), testImage())
	require.Error(t, err)

	var ie *types.InferenceError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, Stage, ie.Stage)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCaptionEmptyReply(t *testing.T) {
	vision := new(mockVision)
	vision.On("SimpleQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("  \n ``` ", nil).Once()

	svc := NewService(vision, decoder.New(), Config{}, nil)
	_, err := svc.Caption(context.Background(), testImage())
	require.Error(t, err)
	assert.Equal(t, types.KindInference, types.Classify(err))
}

func TestCaptionEncoderFailureSkipsModel(t *testing.T) {
	vision := new(mockVision)

	svc := NewService(vision, failingEncoder{}, Config{}, nil)
	_, err := svc.Caption(context.Background(), testImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder exploded")
	vision.AssertNotCalled(t, "SimpleQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCaptionNilImage(t *testing.T) {
	svc := NewService(new(mockVision), decoder.New(), Config{}, nil)
	_, err := svc.Caption(context.Background(), nil)
	assert.Error(t, err)
}

func TestCaptionTimeoutIsReported(t *testing.T) {
	vision := new(mockVision)
	vision.On("SimpleQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	svc := NewService(vision, decoder.New(), Config{}, nil)
	_, err := svc.Caption(ctx, testImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
