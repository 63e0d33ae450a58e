package zerolog

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/raykavin/tradecore/pkg/logger"
)

// Adapter satisfies logger.Logger over a *zerolog.Logger.
type Adapter struct {
	*zerolog.Logger
}

func NewAdapter(l *zerolog.Logger) *Adapter {
	return &Adapter{l}
}

func (z *Adapter) Print(args ...any) { z.Logger.Print(args...) }
func (z *Adapter) Debug(args ...any) { z.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Info(args ...any)  { z.Logger.Info().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Warn(args ...any)  { z.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Error(args ...any) { z.Logger.Error().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Fatal(args ...any) { z.Logger.Fatal().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Panic(args ...any) { z.Logger.Panic().Msg(fmt.Sprint(args...)) }

func (z *Adapter) Printf(format string, args ...any) { z.Logger.Printf(format, args...) }
func (z *Adapter) Debugf(format string, args ...any) { z.Logger.Debug().Msgf(format, args...) }
func (z *Adapter) Infof(format string, args ...any)  { z.Logger.Info().Msgf(format, args...) }
func (z *Adapter) Warnf(format string, args ...any)  { z.Logger.Warn().Msgf(format, args...) }
func (z *Adapter) Errorf(format string, args ...any) { z.Logger.Error().Msgf(format, args...) }
func (z *Adapter) Fatalf(format string, args ...any) { z.Logger.Fatal().Msgf(format, args...) }
func (z *Adapter) Panicf(format string, args ...any) { z.Logger.Panic().Msgf(format, args...) }

func (z *Adapter) WithError(err error) logger.Logger {
	l := z.With().Err(err).Logger()
	return &Adapter{&l}
}

func (z *Adapter) WithField(key string, value any) logger.Logger {
	l := z.With().Interface(key, value).Logger()
	return &Adapter{&l}
}

func (z *Adapter) WithFields(fields map[string]any) logger.Logger {
	l := z.With().Fields(fields).Logger()
	return &Adapter{&l}
}
