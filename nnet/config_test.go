package nnet

import "testing"

func TestConfigAccessors(t *testing.T) {
	c := testConfig()
	if c.Get("Eta").(float64) != 0.5 {
		t.Errorf("get Eta: %v", c.Get("Eta"))
	}
	c, err := c.SetString("Eta", "0.25")
	if err != nil {
		t.Fatal(err)
	}
	if c.Eta != 0.25 {
		t.Errorf("set Eta: %v", c.Eta)
	}
	if _, err = c.SetString("MaxEpoch", "nope"); err == nil {
		t.Error("expected parse error")
	}
	c, err = c.SetBool("Shuffle", false)
	if err != nil || c.Shuffle {
		t.Errorf("set Shuffle: %v %v", c.Shuffle, err)
	}
	fields := c.Fields()
	if fields[0] != "DataSet" {
		t.Errorf("fields: %v", fields)
	}
	for _, f := range fields {
		if f == "Layers" {
			t.Error("Layers should not be listed as a field")
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	saved := DataDir
	DataDir = t.TempDir()
	defer func() { DataDir = saved }()

	c := testConfig()
	if err := c.Save("test.conf"); err != nil {
		t.Fatal(err)
	}
	back, err := LoadConfig("test.conf")
	if err != nil {
		t.Fatal(err)
	}
	if back.Eta != c.Eta || len(back.Layers) != 4 {
		t.Errorf("loaded config differs: %+v", back)
	}
	// layer configs survive marshalling
	if back.Layers[0].Unmarshal().(ParamLayer) == nil {
		t.Error("layer 0 should be a param layer")
	}
	if back.Layers[3].Type != "softmax" {
		t.Errorf("layer 3 type: %s", back.Layers[3].Type)
	}
}
