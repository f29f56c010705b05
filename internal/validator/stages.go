package validator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	validatorhttp "github.com/fivetwenty-io/optimade-validator/internal/http"
	"github.com/fivetwenty-io/optimade-validator/internal/schema"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
)

const illegalInfoEntry = `Illegal entry "info" was found in entry_types_by_format`

// get requests path and turns any status other than 200 into a
// ResponseError. The response is returned alongside that error so the body
// can still be inspected.
func (v *Validator) get(ctx context.Context, path string) (*validatorhttp.Response, error) {
	resp, err := v.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		return resp, &optimade.ResponseError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// validate checks body against the schema registered for key.
func (v *Validator) validate(key string, body []byte) (schema.Kind, any, error) {
	kind, err := v.table.Lookup(key)
	if err != nil {
		return "", nil, err
	}

	model, err := v.schemas.Validate(kind, body)
	if err != nil {
		return kind, nil, err
	}

	return kind, model, nil
}

func (v *Validator) testBaseInfo(ctx context.Context) error {
	_, err := v.runTest(ctx, constants.StageBaseInfo, constants.BaseInfoEndpoint, func(ctx context.Context) (string, error) {
		resp, err := v.get(ctx, constants.BaseInfoEndpoint)
		if err != nil {
			return "", err
		}

		_, model, err := v.validate(constants.BaseInfoEndpoint, resp.Body)
		if err != nil && !optimade.IsRecoverable(err) {
			return "", err
		}

		var info *optimade.InfoResponse

		if err != nil {
			v.logger.Warn("Info endpoint failed serialization, trying to manually extract entry_types_by_format.",
				map[string]interface{}{"error": err.Error()})
		} else {
			var ok bool
			if info, ok = model.(*optimade.InfoResponse); !ok {
				return "", fmt.Errorf("%w: %T for %s", ErrUnexpectedModel, model, constants.BaseInfoEndpoint)
			}
		}

		discovery := discoverEntryTypes(info, resp.Body)
		if !discovery.Found() {
			return "", &optimade.ResponseError{Endpoint: constants.BaseInfoEndpoint, Message: discovery.Reason}
		}

		return v.addEntryTypes(discovery.EntryTypes)
	})

	return err
}

// addEntryTypes unions discovered types into the working set and registers
// their schemas. "info" is rejected and never added.
func (v *Validator) addEntryTypes(entryTypes []string) (string, error) {
	illegal := false

	for _, entryType := range entryTypes {
		if entryType == constants.BaseInfoEndpoint {
			illegal = true

			continue
		}

		v.entryTypes.Add(entryType)
		v.table.RegisterEntryType(entryType)
	}

	if illegal {
		return "", &optimade.ManualValidationError{Message: illegalInfoEntry}
	}

	return fmt.Sprintf("successfully found available entry types in base info: %s", strings.Join(entryTypes, ", ")), nil
}

func (v *Validator) testEntryInfo(ctx context.Context, entryType string) error {
	path := constants.BaseInfoEndpoint + "/" + entryType

	_, err := v.runTest(ctx, constants.StageEntryInfo, entryType, func(ctx context.Context) (string, error) {
		resp, err := v.get(ctx, path)
		if err != nil {
			return "", err
		}

		kind, _, err := v.validate(path, resp.Body)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("serialized correctly as %s", kind), nil
	})

	return err
}

func (v *Validator) testMultiEntry(ctx context.Context, entryType string) error {
	_, err := v.runTest(ctx, constants.StageMultiEntry, entryType, func(ctx context.Context) (string, error) {
		resp, requestErr := v.get(ctx, entryType)
		if requestErr != nil && !optimade.IsRecoverable(requestErr) {
			return "", requestErr
		}

		var body []byte
		if resp != nil {
			body = resp.Body
		}

		_, model, validationErr := v.validate(entryType, body)
		if validationErr != nil && !optimade.IsRecoverable(validationErr) {
			return "", validationErr
		}

		if requestErr != nil || validationErr != nil {
			return "", errors.Join(requestErr, validationErr)
		}

		listing, ok := model.(*optimade.EntryResponseMany)
		if !ok {
			return "", fmt.Errorf("%w: %T for %s", ErrUnexpectedModel, model, entryType)
		}

		return v.scrapeTestID(entryType, listing)
	})

	return err
}

// scrapeTestID registers the id of the first listed entry, then checks that
// every listed entry belongs to entryType.
func (v *Validator) scrapeTestID(entryType string, listing *optimade.EntryResponseMany) (string, error) {
	if len(listing.Data) == 0 {
		return "", &optimade.ResponseError{Endpoint: entryType, Message: "No entries found under endpoint to scrape ID from."}
	}

	first := listing.Data[0]
	v.testIDByType[first.Type] = first.ID
	v.logger.Debug(fmt.Sprintf("Set type %s test ID to %s", first.Type, first.ID), nil)

	for i, entry := range listing.Data {
		if entry.Type != entryType {
			return "", &optimade.ManualValidationError{Message: fmt.Sprintf(
				"Entry %d (id %q) under endpoint %s has type %q", i, entry.ID, entryType, entry.Type)}
		}
	}

	return fmt.Sprintf("successfully scraped test ID from %s endpoint", first.Type), nil
}

func (v *Validator) testSingleEntry(ctx context.Context, entryType string) error {
	id, ok := v.testIDByType[entryType]
	if !ok {
		v.skip(constants.StageSingleEntry, entryType,
			fmt.Sprintf("No test ID was scraped for %s, skipping single entry test", entryType))

		return nil
	}

	path := entryType + "/" + url.PathEscape(id)

	_, err := v.runTest(ctx, constants.StageSingleEntry, entryType, func(ctx context.Context) (string, error) {
		resp, err := v.get(ctx, path)
		if err != nil {
			return "", err
		}

		kind, model, err := v.validate(entryType+"/", resp.Body)
		if err != nil {
			return "", err
		}

		single, ok := model.(*optimade.EntryResponseOne)
		if !ok {
			return "", fmt.Errorf("%w: %T for %s", ErrUnexpectedModel, model, path)
		}

		if single.Data == nil {
			return "", &optimade.ManualValidationError{Message: fmt.Sprintf("No entry returned for %s with id %q", entryType, id)}
		}

		if single.Data.ID != id {
			return "", &optimade.ManualValidationError{Message: fmt.Sprintf(
				"Requested %s entry %q but received %q", entryType, id, single.Data.ID)}
		}

		return fmt.Sprintf("serialized correctly as %s", kind), nil
	})

	return err
}
