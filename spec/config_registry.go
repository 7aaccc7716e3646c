package spec

import (
	"bytes"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/reelkit/errs"
	"gopkg.in/yaml.v3"
)

// validator 會快取 struct 反射資訊，整個包共用一個
var validate = validator.New(validator.WithRequiredStructEnabled())

// GetEngineSettingByYAML
// 嚴格解析 YAML（未知欄位報錯）、檢查並建立衍生物件後回傳。
func GetEngineSettingByYAML(data []byte) (*EngineSetting, error) {
	es := &EngineSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(es); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := es.init(); err != nil {
		return nil, errs.Wrap(err, "engine setting initialized err")
	}
	return es, nil
}

// GetEngineSettingByJSON
// 嚴格解析 JSON（未知欄位報錯）、檢查並建立衍生物件後回傳。
func GetEngineSettingByJSON(data []byte) (*EngineSetting, error) {
	es := &EngineSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(es); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := es.init(); err != nil {
		return nil, errs.Wrap(err, "engine setting initialized err")
	}
	return es, nil
}
