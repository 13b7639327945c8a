package oekoboiler

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strconv"
)

// ListDevices returns all devices registered to the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	result, err := c.getCached(cacheKey("devices"), c.deviceListTTL(), func() (any, error) {
		data, err := c.get(ctx, "/devices")
		if err != nil {
			return nil, err
		}

		devices, err := unmarshalResponse[[]Device](data, "device list")
		if err != nil {
			return nil, err
		}
		return *devices, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(result.([]Device)), nil
}

// Devices returns an iterator over all devices registered to the account.
// Iteration stops at the first error.
//
// Example:
//
//	for device, err := range client.Devices(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(device.DSN())
//	}
func (c *Client) Devices(ctx context.Context) iter.Seq2[Device, error] {
	return func(yield func(Device, error) bool) {
		devices, err := c.ListDevices(ctx)
		if err != nil {
			yield(Device{}, err)
			return
		}
		for _, d := range devices {
			if !yield(d, nil) {
				return
			}
		}
	}
}

// GetDeviceProperties returns all raw properties of the device with the given DSN.
func (c *Client) GetDeviceProperties(ctx context.Context, dsn string) ([]DeviceProperty, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	result, err := c.getCached(cacheKey("properties", dsn), c.propertyTTL(), func() (any, error) {
		data, err := c.get(ctx, "/dsns/"+url.PathEscape(dsn)+"/properties")
		if err != nil {
			return nil, err
		}

		props, err := unmarshalResponse[[]DeviceProperty](data, "device properties")
		if err != nil {
			return nil, err
		}
		return *props, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(result.([]DeviceProperty)), nil
}

// UpdateProperty submits a new datapoint value for the property with the
// given key. The value is sent as is; the platform validates type and range.
func (c *Client) UpdateProperty(ctx context.Context, key int, value any) error {
	path := "/properties/" + strconv.Itoa(key) + "/datapoints"

	_, err := c.post(ctx, path, datapointEnvelope{Datapoint: Datapoint{Value: value}})
	if err != nil {
		return fmt.Errorf("failed to update property %d: %w", key, err)
	}

	c.logger.Info().Int("property_key", key).Interface("value", value).Msg("property_update")

	// Property reads are keyed by DSN and the key does not name one.
	c.invalidatePrefix("properties")
	return nil
}
