package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/homologa-digital/homologa/internal/fsm"
	"github.com/homologa-digital/homologa/internal/model"
	"github.com/homologa-digital/homologa/internal/validate"
)

// doneTokens are the replies that signal photo completion.
var doneTokens = map[string]struct{}{
	"done": {}, "listo": {}, "ya": {}, "fin": {},
}

// Collector drives a case through the collection flow interactively,
// prompting for images, element data, and the personal/workshop records.
// The machine never escalates on its own; when the retry budget runs out the
// collector surfaces it and stops.
type Collector struct {
	machine *fsm.Machine
	reader  *NonBlockingReader
	out     io.Writer
	save    func(context.Context, *model.CaseState) error
}

// NewCollector creates a collector. save is invoked after every state
// change so an interrupted session can resume.
func NewCollector(machine *fsm.Machine, input io.Reader, out io.Writer, save func(context.Context, *model.CaseState) error) *Collector {
	return &Collector{
		machine: machine,
		reader:  NewNonBlockingReader(input),
		out:     out,
		save:    save,
	}
}

// Run advances the case until completion, cancellation, or escalation.
func (c *Collector) Run(ctx context.Context, state *model.CaseState) error {
	for state.Step != model.StepCompleted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var err error
		switch state.Step {
		case model.StepIdle:
			var declined bool
			declined, err = c.confirmStart(ctx, state)
			if err == nil && declined {
				fmt.Fprintln(c.out, SubtleStyle.Render("Case cancelled; resume it later with its id."))
				return c.persist(ctx, state)
			}
		case model.StepConfirmStart:
			err = c.machine.Transition(state, model.StepCollectImages)
		case model.StepCollectImages:
			err = c.collectElements(ctx, state)
		case model.StepCollectPersonal:
			err = c.collectPersonal(ctx, state)
		case model.StepCollectWorkshop:
			err = c.collectWorkshop(ctx, state)
		case model.StepReviewSummary:
			err = c.review(ctx, state)
		default:
			return fmt.Errorf("unexpected step %s", state.Step)
		}
		if err != nil {
			return err
		}

		if err := c.persist(ctx, state); err != nil {
			return err
		}

		if state.Step == model.StepIdle {
			fmt.Fprintln(c.out, SubtleStyle.Render("Case cancelled; resume it later with its id."))
			return nil
		}
	}

	fmt.Fprintln(c.out, SuccessStyle.Render("Case complete: "+state.CaseID))
	return nil
}

// confirmStart asks the customer to confirm the element list. The second
// return value is true when they declined.
func (c *Collector) confirmStart(ctx context.Context, state *model.CaseState) (bool, error) {
	fmt.Fprintln(c.out, TitleStyle.Render("Homologation case"))
	fmt.Fprintf(c.out, "Elements: %s\n", BoldStyle.Render(strings.Join(state.Elements, ", ")))
	fmt.Fprint(c.out, "Start collection? [y/n] ")

	reply, err := c.reader.ReadLine(ctx)
	if err != nil {
		return false, err
	}
	if !isYes(reply) {
		c.machine.Cancel(state)
		return true, nil
	}

	return false, c.machine.Transition(state, model.StepConfirmStart)
}

func (c *Collector) collectElements(ctx context.Context, state *model.CaseState) error {
	for state.CurrentElement != "" {
		switch state.Phase {
		case model.PhasePhotos:
			if err := c.collectPhotos(ctx, state); err != nil {
				return err
			}
		case model.PhaseData:
			if err := c.collectData(ctx, state); err != nil {
				return err
			}
		}

		if err := c.persist(ctx, state); err != nil {
			return err
		}
	}

	return c.machine.Transition(state, model.StepCollectPersonal)
}

func (c *Collector) collectPhotos(ctx context.Context, state *model.CaseState) error {
	code := state.CurrentElement
	fmt.Fprintln(c.out, TitleStyle.Render("Photos: "+code))

	for _, key := range state.PendingImages {
		if strings.HasPrefix(key, code+"/") {
			fmt.Fprintln(c.out, SubtleStyle.Render("  pending: "+key))
		}
	}
	fmt.Fprintln(c.out, InfoStyle.Render(`Enter received image keys one per line; "done" to finish photos.`))

	for {
		reply, err := c.reader.ReadLine(ctx)
		if err != nil {
			return err
		}

		if _, done := doneTokens[strings.ToLower(reply)]; done {
			return c.machine.MarkPhotosDone(state)
		}

		if err := c.machine.RecordImage(state, reply); err != nil {
			fmt.Fprintln(c.out, WarningStyle.Render(err.Error()))
			if c.machine.RecordInvalid(state, err.Error()) {
				return c.escalate(state)
			}
		}
	}
}

func (c *Collector) collectData(ctx context.Context, state *model.CaseState) error {
	code := state.CurrentElement
	fmt.Fprintln(c.out, TitleStyle.Render("Data: "+code))

	for state.Phase == model.PhaseData && state.CurrentElement == code {
		values, err := c.promptPending(ctx, state, code)
		if err != nil {
			return err
		}

		failures, err := c.machine.SubmitElementFields(state, values)
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			return nil
		}

		for _, f := range failures {
			fmt.Fprintln(c.out, WarningStyle.Render(f.Error()))
		}
		if c.machine.RecordInvalid(state, failures[0].Error()) {
			return c.escalate(state)
		}
	}

	return nil
}

// promptPending asks for each visible required field that is still missing
// or invalid for the element.
func (c *Collector) promptPending(ctx context.Context, state *model.CaseState, code string) (map[string]string, error) {
	elem, ok := c.machine.Catalog().ElementByCode(code)
	if !ok {
		return nil, fmt.Errorf("unknown element code %q", code)
	}

	collected := state.ElementData[code]
	values := make(map[string]string)

	for _, field := range elem.Fields {
		if !validate.FieldVisible(field, collected) {
			continue
		}
		if v, present := collected[field.Name]; present && validate.ValidateField(field, v) == nil {
			continue
		}

		label := field.Label
		if label == "" {
			label = field.Name
		}
		fmt.Fprintf(c.out, "%s: ", BoldStyle.Render(label))

		reply, err := c.reader.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		values[field.Name] = reply
	}

	return values, nil
}

func (c *Collector) collectPersonal(ctx context.Context, state *model.CaseState) error {
	fmt.Fprintln(c.out, TitleStyle.Render("Personal and vehicle data"))

	personal := model.PersonalData{
		FullName:   c.ask(ctx, "Full name"),
		Email:      c.ask(ctx, "Email"),
		DNI:        c.ask(ctx, "DNI/NIE/CIF"),
		Phone:      c.ask(ctx, "Phone"),
		PostalCode: c.ask(ctx, "Postal code"),
	}
	if failures, err := c.machine.SubmitPersonal(state, personal); err != nil {
		return err
	} else if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(c.out, WarningStyle.Render(f.Error()))
		}
		if c.machine.RecordInvalid(state, failures[0].Error()) {
			return c.escalate(state)
		}
		return nil
	}

	vehicle := model.VehicleData{
		Matricula: c.ask(ctx, "Vehicle plate"),
		Brand:     c.ask(ctx, "Brand"),
		Model:     c.ask(ctx, "Model"),
	}
	if failures, err := c.machine.SubmitVehicle(state, vehicle); err != nil {
		return err
	} else if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(c.out, WarningStyle.Render(f.Error()))
		}
		if c.machine.RecordInvalid(state, failures[0].Error()) {
			return c.escalate(state)
		}
		return nil
	}

	return c.machine.Transition(state, model.StepCollectWorkshop)
}

func (c *Collector) collectWorkshop(ctx context.Context, state *model.CaseState) error {
	fmt.Fprintln(c.out, TitleStyle.Render("Workshop data"))

	workshop := model.WorkshopData{
		Name:       c.ask(ctx, "Workshop name"),
		Address:    c.ask(ctx, "Address"),
		PostalCode: c.ask(ctx, "Postal code"),
		Phone:      c.ask(ctx, "Phone"),
	}
	if failures, err := c.machine.SubmitWorkshop(state, workshop); err != nil {
		return err
	} else if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(c.out, WarningStyle.Render(f.Error()))
		}
		if c.machine.RecordInvalid(state, failures[0].Error()) {
			return c.escalate(state)
		}
		return nil
	}

	return c.machine.Transition(state, model.StepReviewSummary)
}

func (c *Collector) review(ctx context.Context, state *model.CaseState) error {
	fmt.Fprintln(c.out, TitleStyle.Render("Summary"))
	fmt.Fprintf(c.out, "Elements: %s\n", strings.Join(state.Elements, ", "))
	fmt.Fprintf(c.out, "Images received: %d/%d\n", len(state.ReceivedImages), len(state.RequiredImages))
	fmt.Fprint(c.out, "Confirm and finish? [y = finish / e = edit images] ")

	reply, err := c.reader.ReadLine(ctx)
	if err != nil {
		return err
	}

	if strings.EqualFold(reply, "e") {
		return c.machine.Transition(state, model.StepCollectImages)
	}
	if isYes(reply) {
		return c.machine.Transition(state, model.StepCompleted)
	}

	c.machine.Cancel(state)
	return nil
}

func (c *Collector) ask(ctx context.Context, label string) *string {
	fmt.Fprintf(c.out, "%s: ", BoldStyle.Render(label))
	reply, err := c.reader.ReadLine(ctx)
	if err != nil || reply == "" {
		return nil
	}
	return &reply
}

func (c *Collector) escalate(state *model.CaseState) error {
	fmt.Fprintln(c.out, ErrorStyle.Render("Too many invalid inputs; a human needs to take over."))
	return fmt.Errorf("retry budget exhausted at step %s for case %s", state.Step, state.CaseID)
}

func (c *Collector) persist(ctx context.Context, state *model.CaseState) error {
	if c.save == nil {
		return nil
	}
	return c.save(ctx, state)
}

func isYes(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}
