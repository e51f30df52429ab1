// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// ExampleRecommendationLines are sample lines in the exact format the
// recommendation prompt asks for. They are injected into the prompt as
// guidance for the model.
var ExampleRecommendationLines = []string{
	"Amélie (Le Fabuleux Destin d'Amélie Poulain) - A whimsical tale of love and fate in Paris.",
	"Parasite (기생충) - A dark comedy thriller about class disparity.",
}
