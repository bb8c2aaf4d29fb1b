package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-survey-backend/internal/device"
	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/storage"
	"github.com/tbourn/go-survey-backend/internal/survey"
	"github.com/tbourn/go-survey-backend/internal/sysutil"
)

// Kiosk commands typed instead of an answer.
const (
	cmdBack = ":b"
	cmdQuit = ":q"
)

var errInputClosed = errors.New("input closed before the questionnaire was finished")

type kioskText struct {
	help, blocked, gateWarning, testBanner string
	invalid, noBack, tooLong, saveFailed   string
	retry, thanks, again, bye              string
}

var kioskTexts = map[string]kioskText{
	"es": {
		help:        "Responde con un número del %d al %d. Escribe :b para volver y :q para salir.",
		blocked:     "Ya has respondido esta encuesta desde este dispositivo. ¡Gracias!",
		gateWarning: "Aviso: no se pudo comprobar si ya respondiste. Puedes continuar.",
		testBanner:  "MODO PRUEBA: se permiten envíos repetidos.",
		invalid:     "Respuesta no válida: %v",
		noBack:      "Ya estás en la primera pregunta.",
		tooLong:     "El comentario es demasiado largo (máximo %d caracteres).",
		saveFailed:  "No se pudo guardar la encuesta: %v",
		retry:       "¿Reintentar? (s/n) ",
		thanks:      "¡Gracias! Encuesta registrada con id %s.",
		again:       "¿Responder otra vez? (s/n) ",
		bye:         "Encuesta cancelada; no se guardó nada.",
	},
	"en": {
		help:        "Answer with a number from %d to %d. Type :b to go back and :q to quit.",
		blocked:     "You already answered this survey from this device. Thank you!",
		gateWarning: "Warning: could not check for a previous answer. You may continue.",
		testBanner:  "TEST MODE: repeated submissions are allowed.",
		invalid:     "Invalid answer: %v",
		noBack:      "You are already on the first question.",
		tooLong:     "The comment is too long (at most %d characters).",
		saveFailed:  "Could not save the survey: %v",
		retry:       "Retry? (y/n) ",
		thanks:      "Thank you! Survey stored with id %s.",
		again:       "Answer again? (y/n) ",
		bye:         "Survey cancelled; nothing was saved.",
	},
}

func (a *app) takeCmd() *cobra.Command {
	var lang, deviceFile string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Answer the questionnaire interactively",
		Long: `Walk through the ten questions and the comment in the terminal.
The device id is kept in a local file so a second run is blocked unless
test mode is on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deviceFile == "" {
				p, err := device.DefaultPath()
				if err != nil {
					return err
				}
				deviceFile = p
			}
			cat := domain.LoadCatalog(domain.NegotiateLanguage("", lang))
			return a.withStore(cmd.Context(), func(store storage.Backend) error {
				flow := survey.New(store, device.FileResolver{Path: deviceFile},
					survey.WithTestMode(a.cfg.Survey.TestMode))
				k := newKiosk(cmd.InOrStdin(), cmd.OutOrStdout(), cat)
				k.timeout = a.cfg.Store.Timeout
				return k.run(cmd.Context(), flow)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "questionnaire language (es|en)")
	cmd.Flags().StringVar(&deviceFile, "device-file", "", "file holding this device's id (default in the user config dir)")
	return cmd
}

// kiosk drives a survey.Flow from line-based input.
type kiosk struct {
	in      *bufio.Scanner
	out     io.Writer
	cat     domain.Catalog
	txt     kioskText
	timeout time.Duration
}

func newKiosk(in io.Reader, out io.Writer, cat domain.Catalog) *kiosk {
	txt, ok := kioskTexts[cat.Language]
	if !ok {
		txt = kioskTexts["es"]
	}
	return &kiosk{in: bufio.NewScanner(in), out: out, cat: cat, txt: txt}
}

func (k *kiosk) printf(format string, args ...any) { fmt.Fprintf(k.out, format, args...) }

func (k *kiosk) readLine() (string, error) {
	if !k.in.Scan() {
		if err := k.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return k.in.Text(), nil
}

func (k *kiosk) confirm(prompt string) bool {
	k.printf("%s", prompt)
	line, err := k.readLine()
	return err == nil && sysutil.IsTruthy(line)
}

func (k *kiosk) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if k.timeout > 0 {
		return context.WithTimeout(ctx, k.timeout)
	}
	return context.WithCancel(ctx)
}

func (k *kiosk) run(ctx context.Context, flow *survey.Flow) error {
	sctx, cancel := k.storeCtx(ctx)
	err := flow.Start(sctx)
	cancel()
	if err != nil {
		return err
	}
	if flow.State() == survey.StateBlocked {
		k.printf("%s\n", k.txt.blocked)
		return nil
	}
	if flow.GateErr() != nil {
		k.printf("%s\n", k.txt.gateWarning)
	}
	if flow.TestMode() {
		k.printf("%s\n", k.txt.testBanner)
	}

	k.printf("\n%s\n%s\n", k.cat.Title, k.cat.Subtitle)
	k.printf(k.txt.help+"\n", k.cat.Scale.Min, k.cat.Scale.Max)

	for {
		done, err := k.answerAll(ctx, flow)
		if err != nil {
			return err
		}
		if !done {
			k.printf("%s\n", k.txt.bye)
			return nil
		}
		k.printf(k.txt.thanks+"\n", flow.SurveyID())
		if !flow.TestMode() || !k.confirm(k.txt.again) {
			return nil
		}
		if err := flow.Reset(); err != nil {
			return err
		}
	}
}

// answerAll runs one pass over the steps. done is false when the
// respondent quit.
func (k *kiosk) answerAll(ctx context.Context, flow *survey.Flow) (done bool, err error) {
	for {
		step := flow.Step()
		if step == survey.CommentStep {
			done, again, err := k.comment(ctx, flow)
			if again {
				continue
			}
			return done, err
		}

		q := k.cat.Questions[step]
		k.printf("\n[%d/%d] %s\n%s\n%s\n", step+1, domain.NumQuestions, q.Title, q.Question, q.Description)
		k.printf("%d = %s ... %d = %s\n> ", k.cat.Scale.Min, k.cat.Scale.MinLabel, k.cat.Scale.Max, k.cat.Scale.MaxLabel)

		line, err := k.readLine()
		if err != nil {
			return false, err
		}
		switch strings.TrimSpace(line) {
		case cmdQuit:
			return false, nil
		case cmdBack:
			if err := flow.Back(); err != nil {
				k.printf("%s\n", k.txt.noBack)
			}
			continue
		}

		if err := flow.Answer(line); err != nil {
			var ve *survey.ValidationError
			if !errors.As(err, &ve) {
				return false, err
			}
			k.printf(k.txt.invalid+"\n", ve.Reason)
			continue
		}
		if err := flow.Next(); err != nil {
			return false, err
		}
	}
}

// comment handles the last step and the submission. again is true when
// the step loop must continue (back or a rejected comment).
func (k *kiosk) comment(ctx context.Context, flow *survey.Flow) (done, again bool, err error) {
	c := k.cat.Comment
	k.printf("\n%s\n%s\n(%s)\n> ", c.Title, c.Question, c.Placeholder)
	line, err := k.readLine()
	if err != nil {
		return false, false, err
	}
	switch strings.TrimSpace(line) {
	case cmdQuit:
		return false, false, nil
	case cmdBack:
		if err := flow.Back(); err != nil {
			return false, false, err
		}
		return false, true, nil
	}
	if utf8.RuneCountInString(line) > services.DefaultMaxSuggestionRunes {
		k.printf(k.txt.tooLong+"\n", services.DefaultMaxSuggestionRunes)
		return false, true, nil
	}
	if err := flow.Answer(line); err != nil {
		return false, false, err
	}

	for {
		sctx, cancel := k.storeCtx(ctx)
		id, err := flow.Submit(sctx)
		cancel()
		if err == nil {
			log.Info().Str("survey_id", id).Bool("test", flow.TestMode()).Msg("survey submitted")
			return true, false, nil
		}
		var pe *survey.PersistenceError
		if !errors.As(err, &pe) {
			return false, false, err
		}
		log.Error().Err(err).Str("op", pe.Op).Msg("submit failed")
		k.printf(k.txt.saveFailed+"\n", err)
		if !k.confirm(k.txt.retry) {
			return false, false, err
		}
	}
}
