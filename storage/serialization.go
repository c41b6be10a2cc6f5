// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/json"
	"fmt"
)

// EncodeVector serializes a vector as a JSON float array. This is the
// at-rest format of ClauseEmbedding.EmbeddingJSON.
func EncodeVector(vec []float32) (string, error) {
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

// DecodeVector deserializes a JSON float array back into a vector. The
// round-trip through EncodeVector is lossless.
func DecodeVector(data string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(data), &vec); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return vec, nil
}
